package command

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/portalapi/portal-api/internal/config"
	"github.com/portalapi/portal-api/internal/dbconn"
	"github.com/portalapi/portal-api/internal/repository"
)

func storeOptions(cfg config.Config, migrate bool) repository.Options {
	return repository.Options{
		DSN:                    cfg.DatabaseDSN,
		ServerSelectionTimeout: cfg.DBServerSelectionTimeout,
		ConnectTimeout:         cfg.DBConnectTimeout,
		SocketTimeout:          cfg.DBSocketTimeout,
		MaxPoolSize:            cfg.DBMaxPoolSize,
		MinPoolSize:            cfg.DBMinPoolSize,
		MaxIdleTime:            cfg.DBMaxIdleTime,
		Migrate:                migrate,
	}
}

func newManager(cfg config.Config, opts ...dbconn.Option) *dbconn.Manager {
	storeOpts := storeOptions(cfg, cfg.DBAutoMigrate)
	dial := func(ctx context.Context) (repository.Store, error) {
		return repository.Open(ctx, storeOpts)
	}
	opts = append([]dbconn.Option{dbconn.WithDialTimeout(cfg.DBConnectTimeout)}, opts...)
	return dbconn.NewManager(dial, opts...)
}

func migrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "apply pending schema migrations and indexes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := configFrom(cmd.Context())
			if err != nil {
				return err
			}
			if err := cfg.RequireDSN(); err != nil {
				return err
			}

			store, err := repository.Open(cmd.Context(), storeOptions(cfg, true))
			if err != nil {
				return err
			}
			defer store.Close(context.WithoutCancel(cmd.Context()))

			slog.InfoContext(cmd.Context(), "migrations applied")
			return nil
		},
	}
}

func pingCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "check that the configured database is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := configFrom(cmd.Context())
			if err != nil {
				return err
			}
			if err := cfg.RequireDSN(); err != nil {
				return err
			}

			start := time.Now()
			m := newManager(cfg)
			defer m.Close(context.WithoutCancel(cmd.Context()))

			store, err := m.EnsureReady(cmd.Context())
			if err != nil {
				return err
			}
			if err := store.Ping(cmd.Context()); err != nil {
				return fmt.Errorf("ping: %w", err)
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "database connection ok (%s)\n", time.Since(start).Round(time.Millisecond))
			return err
		},
	}
}
