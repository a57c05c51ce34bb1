// Package config loads service configuration from defaults, an optional YAML file and
// the environment, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// DefaultJWTSecret is the development signing secret. Production refuses to start with it.
const DefaultJWTSecret = "dev-secret-change-in-production"

var (
	// ErrDefaultSecret is returned when production runs with DefaultJWTSecret.
	ErrDefaultSecret = errors.New("JWT_SECRET must be set in production environment")
	// ErrMissingDSN is returned by RequireDSN when no database is configured.
	ErrMissingDSN = errors.New("DATABASE_DSN or MONGO_URI must be set")
)

type Config struct {
	Port        string        `koanf:"port"`
	Env         string        `koanf:"env"`
	DatabaseDSN string        `koanf:"database_dsn"`
	MongoURI    string        `koanf:"mongo_uri"`
	JWTSecret   string        `koanf:"jwt_secret"`
	JWTExpiry   time.Duration `koanf:"jwt_expiry"`

	DBServerSelectionTimeout time.Duration `koanf:"db_server_selection_timeout"`
	DBConnectTimeout         time.Duration `koanf:"db_connect_timeout"`
	DBSocketTimeout          time.Duration `koanf:"db_socket_timeout"`
	DBMaxPoolSize            int           `koanf:"db_max_pool_size"`
	DBMinPoolSize            int           `koanf:"db_min_pool_size"`
	DBMaxIdleTime            time.Duration `koanf:"db_max_idle_time"`
	DBAutoMigrate            bool          `koanf:"db_auto_migrate"`

	RateLimitRPS    float64       `koanf:"rate_limit_rps"`
	RateLimitBurst  int           `koanf:"rate_limit_burst"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
	RedisAddr       string        `koanf:"redis_addr"`
	RedisPassword   string        `koanf:"redis_password"`

	LogLevel string `koanf:"log_level"`
}

// defaults holds every known key. Environment variables outside this set, or set to an
// empty value, are ignored.
func defaults() map[string]any {
	return map[string]any{
		"port":                        "8080",
		"env":                         "development",
		"database_dsn":                "",
		"mongo_uri":                   "",
		"jwt_secret":                  DefaultJWTSecret,
		"jwt_expiry":                  24 * time.Hour,
		"db_server_selection_timeout": 8 * time.Second,
		"db_connect_timeout":          15 * time.Second,
		"db_socket_timeout":           45 * time.Second,
		"db_max_pool_size":            5,
		"db_min_pool_size":            0,
		"db_max_idle_time":            5 * time.Minute,
		"db_auto_migrate":             true,
		"rate_limit_rps":              5.0,
		"rate_limit_burst":            10,
		"rate_limit_window":           time.Minute,
		"redis_addr":                  "",
		"redis_password":              "",
		"log_level":                   "info",
	}
}

// Load builds the configuration. path may be empty to skip the YAML file.
func Load(path string) (Config, error) {
	k := koanf.New(".")

	if err := k.Load(mapProvider(defaults()), nil); err != nil {
		return Config{}, fmt.Errorf("load defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	known := defaults()
	fromEnv := func(name, value string) (string, any) {
		key := strings.ToLower(name)
		if _, ok := known[key]; !ok || value == "" {
			return "", nil
		}
		return key, value
	}
	if err := k.Load(env.ProviderWithValue("", ".", fromEnv), nil); err != nil {
		return Config{}, fmt.Errorf("load env: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.DatabaseDSN == "" {
		cfg.DatabaseDSN = cfg.MongoURI
	}
	cfg.Env = strings.ToLower(strings.TrimSpace(cfg.Env))

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks settings that would make the service unsafe or unusable.
func (c Config) Validate() error {
	if c.IsProduction() && c.JWTSecret == DefaultJWTSecret {
		return ErrDefaultSecret
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET must not be empty")
	}
	if c.JWTExpiry <= 0 {
		return fmt.Errorf("JWT_EXPIRY must be positive, got %s", c.JWTExpiry)
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		return errors.New("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive")
	}
	if c.RedisAddr != "" && c.RateLimitWindow <= 0 {
		return errors.New("RATE_LIMIT_WINDOW must be positive when REDIS_ADDR is set")
	}
	return nil
}

// RequireDSN reports ErrMissingDSN when no database is configured.
func (c Config) RequireDSN() error {
	if c.DatabaseDSN == "" {
		return ErrMissingDSN
	}
	return nil
}

// IsProduction reports whether ENV is production.
func (c Config) IsProduction() bool { return c.Env == "production" }

// IsDevelopment reports whether ENV is development. Error details are only exposed then.
func (c Config) IsDevelopment() bool { return c.Env == "development" }

// mapProvider is a koanf provider backed by an in-memory map.
type mapProvider map[string]any

// ReadBytes is not supported; koanf uses Read for map providers.
func (m mapProvider) ReadBytes() ([]byte, error) {
	return nil, errors.New("config: map provider does not support ReadBytes")
}

// Read returns the map.
func (m mapProvider) Read() (map[string]any, error) {
	return m, nil
}
