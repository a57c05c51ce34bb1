package command

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/portalapi/portal-api/internal/config"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := RootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	err := cmd.ExecuteContext(ctx)
	return out.String(), err
}

func TestSecretCommand(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("JWT_SECRET", config.DefaultJWTSecret)

	out, err := execute(t, "secret", "--length", "48")
	require.NoError(t, err, "secret must not require a valid configuration")
	assert.Len(t, strings.TrimSpace(out), 48)

	_, err = execute(t, "secret", "--length", "8")
	assert.Error(t, err)
}

func TestMigrateAndPing_SQLite(t *testing.T) {
	t.Setenv("ENV", "test")
	t.Setenv("DATABASE_DSN", "sqlite:"+filepath.Join(t.TempDir(), "portal.db"))

	_, err := execute(t, "migrate")
	require.NoError(t, err)

	out, err := execute(t, "ping")
	require.NoError(t, err)
	assert.Contains(t, out, "database connection ok")
}

func TestCommandsRequireDSN(t *testing.T) {
	t.Setenv("DATABASE_DSN", "")
	t.Setenv("MONGO_URI", "")

	_, err := execute(t, "ping")
	assert.ErrorIs(t, err, config.ErrMissingDSN)

	_, err = execute(t, "migrate")
	assert.ErrorIs(t, err, config.ErrMissingDSN)
}

func TestProductionRejectsDefaultSecret(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("DATABASE_DSN", "sqlite::memory:")

	_, err := execute(t, "ping")
	assert.Error(t, err)
}

func TestStoreOptions(t *testing.T) {
	cfg := config.Config{
		DatabaseDSN:              "mongodb://localhost/portal",
		DBServerSelectionTimeout: 8 * time.Second,
		DBConnectTimeout:         15 * time.Second,
		DBSocketTimeout:          45 * time.Second,
		DBMaxPoolSize:            5,
		DBMinPoolSize:            1,
		DBMaxIdleTime:            5 * time.Minute,
	}

	opts := storeOptions(cfg, true)
	assert.Equal(t, cfg.DatabaseDSN, opts.DSN)
	assert.Equal(t, 8*time.Second, opts.ServerSelectionTimeout)
	assert.Equal(t, 15*time.Second, opts.ConnectTimeout)
	assert.Equal(t, 45*time.Second, opts.SocketTimeout)
	assert.Equal(t, 5, opts.MaxPoolSize)
	assert.Equal(t, 1, opts.MinPoolSize)
	assert.Equal(t, 5*time.Minute, opts.MaxIdleTime)
	assert.True(t, opts.Migrate)
}

func TestNewLimiter(t *testing.T) {
	l, stop, err := newLimiter(config.Config{RateLimitRPS: 1, RateLimitBurst: 1})
	require.NoError(t, err)
	defer stop()
	assert.True(t, l.Allow("k"))
	assert.False(t, l.Allow("k"))
}
