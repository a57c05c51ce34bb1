// Package command contains the CLI command constructors.
package command

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/portalapi/portal-api/internal/config"
	"github.com/portalapi/portal-api/internal/observability"
)

type configKey struct{}

// RootCommand instantiates the root command, with all sub-commands bound. Without a
// sub-command it serves the API.
func RootCommand() *cobra.Command {
	var configFilePath string
	serve := serveCommand()

	cmd := &cobra.Command{
		Use:          "portal-api [command] [flags]",
		Short:        "The portal REST API",
		Version:      version(),
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			envErr := godotenv.Load()

			cfg, err := config.Load(configFilePath)
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}

			logger := observability.InitSlog(cfg.LogLevel, cfg.IsDevelopment())
			slog.SetDefault(logger)
			if envErr != nil {
				logger.DebugContext(cmd.Context(), "no .env file found, using environment variables")
			}
			logger.DebugContext(cmd.Context(), "configuration loaded",
				slog.String("env", cfg.Env),
				slog.String("port", cfg.Port),
			)

			cmd.SetContext(context.WithValue(cmd.Context(), configKey{}, cfg))
			return nil
		},
		RunE: serve.RunE,
	}

	cmd.PersistentFlags().StringVarP(
		&configFilePath,
		"config", "c",
		"",
		"path to an optional YAML configuration file",
	)

	cmd.AddCommand(
		serve,
		migrateCommand(),
		pingCommand(),
		secretCommand(),
	)

	return cmd
}

func configFrom(ctx context.Context) (config.Config, error) {
	cfg, ok := ctx.Value(configKey{}).(config.Config)
	if !ok {
		return config.Config{}, errors.New("configuration was not loaded")
	}
	return cfg, nil
}

func version() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "unknown-dev"
	}
	ver := "unknown"
	dirty := false
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			ver = setting.Value
		case "vcs.modified":
			dirty = setting.Value == "true"
		}
	}
	if dirty {
		ver += "-dev"
	}
	return ver
}
