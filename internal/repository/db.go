package repository

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite" // sqlite sql.DB driver initialization
)

//go:embed migrations/*/*.sql
var migrations embed.FS

// goose keeps its base FS and dialect in package state.
var migrateMu sync.Mutex

// SQLStore is a Store backed by database/sql.
type SQLStore struct {
	db       *sql.DB
	dialect  dialect
	users    *SQLUserRepository
	contacts *SQLContactRepository
}

// NewSQLStore wraps an already opened database. The DSN only selects the dialect.
func NewSQLStore(db *sql.DB, dsn string) *SQLStore {
	d := detectDialect(dsn)
	return &SQLStore{
		db:       db,
		dialect:  d,
		users:    &SQLUserRepository{db: db, dialect: d},
		contacts: &SQLContactRepository{db: db, dialect: d},
	}
}

// OpenSQL creates a connection pool for the DSN's dialect, verifies it is reachable within
// the server selection timeout and optionally migrates the schema.
func OpenSQL(ctx context.Context, opts Options) (*SQLStore, error) {
	d := detectDialect(opts.DSN)

	db, err := openDB(d, opts)
	if err != nil {
		return nil, err
	}

	if d == dialectSQLite {
		// Every connection to :memory: is a distinct database.
		db.SetMaxOpenConns(1)
	} else {
		if opts.MaxPoolSize > 0 {
			db.SetMaxOpenConns(opts.MaxPoolSize)
			db.SetMaxIdleConns(opts.MaxPoolSize)
		}
		if opts.MaxIdleTime > 0 {
			db.SetConnMaxIdleTime(opts.MaxIdleTime)
		}
	}

	pingCtx := ctx
	if opts.ServerSelectionTimeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, opts.ServerSelectionTimeout)
		defer cancel()
	}
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", d, err)
	}

	if opts.Migrate {
		if err := migrate(ctx, db, d); err != nil {
			db.Close()
			return nil, err
		}
	}

	return NewSQLStore(db, opts.DSN), nil
}

func openDB(d dialect, opts Options) (*sql.DB, error) {
	switch d {
	case dialectPostgres:
		cfg, err := pgx.ParseConfig(opts.DSN)
		if err != nil {
			return nil, fmt.Errorf("parse postgres dsn: %w", err)
		}
		if opts.ConnectTimeout > 0 {
			cfg.ConnectTimeout = opts.ConnectTimeout
		}
		return stdlib.OpenDB(*cfg), nil

	case dialectSQLite:
		return sql.Open("sqlite", sqlitePath(opts.DSN))

	default:
		cfg, err := mysql.ParseDSN(opts.DSN)
		if err != nil {
			return nil, fmt.Errorf("parse mysql dsn: %w", err)
		}
		cfg.ParseTime = true
		cfg.ClientFoundRows = true
		if opts.ConnectTimeout > 0 {
			cfg.Timeout = opts.ConnectTimeout
		}
		if opts.SocketTimeout > 0 {
			cfg.ReadTimeout = opts.SocketTimeout
			cfg.WriteTimeout = opts.SocketTimeout
		}
		connector, err := mysql.NewConnector(cfg)
		if err != nil {
			return nil, fmt.Errorf("mysql connector: %w", err)
		}
		return sql.OpenDB(connector), nil
	}
}

// sqlitePath turns sqlite:<path> into a modernc DSN. file: URIs pass through unchanged.
func sqlitePath(dsn string) string {
	path := strings.TrimPrefix(dsn, "sqlite:")
	if strings.ContainsRune(path, '?') {
		path += "&"
	} else {
		path += "?"
	}
	return path + "_time_format=sqlite&_pragma=busy_timeout(5000)"
}

// migrate applies all pending migrations for the dialect.
func migrate(ctx context.Context, db *sql.DB, d dialect) error {
	migrateMu.Lock()
	defer migrateMu.Unlock()

	goose.SetLogger(slog.NewLogLogger(slog.Default().Handler(), slog.LevelDebug))
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect(d.String()); err != nil {
		return fmt.Errorf("set migration dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, d.migrationsDir()); err != nil {
		return fmt.Errorf("migrate %s: %w", d, err)
	}
	return nil
}

// Users returns the user repository.
func (s *SQLStore) Users() UserRepository { return s.users }

// Contacts returns the contact message repository.
func (s *SQLStore) Contacts() ContactRepository { return s.contacts }

// Ping verifies the pool can still reach the database.
func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the pool.
func (s *SQLStore) Close(context.Context) error {
	return s.db.Close()
}

// DB exposes the underlying pool.
func (s *SQLStore) DB() *sql.DB { return s.db }

// Dialect returns the goose dialect name of the store.
func (s *SQLStore) Dialect() string { return s.dialect.String() }

// MigrateStore applies pending migrations on an open SQL store.
func MigrateStore(ctx context.Context, s *SQLStore) error {
	return migrate(ctx, s.db, s.dialect)
}
