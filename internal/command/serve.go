package command

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/portalapi/portal-api/internal/config"
	"github.com/portalapi/portal-api/internal/dbconn"
	"github.com/portalapi/portal-api/internal/handler"
	"github.com/portalapi/portal-api/internal/metrics"
	"github.com/portalapi/portal-api/internal/middleware"
	"github.com/portalapi/portal-api/internal/service"
)

// Server timeouts.
const (
	readHeaderTimeout = 5 * time.Second
	readTimeout       = 15 * time.Second
	writeTimeout      = 30 * time.Second
	idleTimeout       = 60 * time.Second
	shutdownTimeout   = 10 * time.Second
)

func serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "serve the REST API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) (runErr error) {
			cfg, err := configFrom(cmd.Context())
			if err != nil {
				return err
			}
			if err := cfg.RequireDSN(); err != nil {
				return err
			}
			logger := slog.Default()

			reg := metrics.NewRegistry()
			db := newManager(cfg, dbconn.WithObserver(reg))
			defer func() {
				closeCtx, cancel := context.WithTimeout(context.WithoutCancel(cmd.Context()), shutdownTimeout)
				defer cancel()
				if err := db.Close(closeCtx); err != nil {
					runErr = errors.Join(runErr, err)
				}
			}()

			limiter, closeLimiter, err := newLimiter(cfg)
			if err != nil {
				return err
			}
			defer closeLimiter()

			router := handler.NewRouter(handler.RouterConfig{
				DB:          db,
				Auth:        service.NewAuthService(db, cfg.JWTSecret, cfg.JWTExpiry),
				Contact:     service.NewContactService(db),
				Env:         cfg.Env,
				Limiter:     limiter,
				Metrics:     reg,
				Logger:      logger,
				PingTimeout: cfg.DBServerSelectionTimeout,
			})

			grp, ctx := errgroup.WithContext(cmd.Context())

			// Warm the connection; requests connect on demand if this fails.
			go func() {
				if _, err := db.EnsureReady(ctx); err != nil && ctx.Err() == nil {
					logger.WarnContext(ctx, "initial database connection failed, retrying on demand", "error", err)
				}
			}()

			var lc net.ListenConfig
			listener, err := lc.Listen(ctx, "tcp", ":"+cfg.Port)
			if err != nil {
				return err
			}

			srv := &http.Server{
				Handler:           router,
				ReadHeaderTimeout: readHeaderTimeout,
				ReadTimeout:       readTimeout,
				WriteTimeout:      writeTimeout,
				IdleTimeout:       idleTimeout,
			}

			logger.InfoContext(ctx, "server starting",
				slog.String("address", listener.Addr().String()),
				slog.String("env", cfg.Env),
			)
			serve(ctx, grp, srv, listener, logger)
			return grp.Wait()
		},
	}
}

// serve runs srv on listener and shuts it down gracefully when ctx is canceled.
func serve(ctx context.Context, grp *errgroup.Group, srv *http.Server, listener net.Listener, logger *slog.Logger) {
	grp.Go(func() error {
		err := srv.Serve(listener)
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})

	grp.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		logger.Info("server stopped")
		return nil
	})
}

// newLimiter picks the Redis limiter when REDIS_ADDR is set, else the in-process one.
func newLimiter(cfg config.Config) (middleware.Limiter, func(), error) {
	if cfg.RedisAddr == "" {
		l := middleware.NewIPRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
		return l, l.Stop, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	l, err := middleware.NewRedisRateLimiter(client, "", cfg.RateLimitBurst, cfg.RateLimitWindow)
	if err != nil {
		client.Close()
		return nil, nil, err
	}
	return l, func() { client.Close() }, nil
}
