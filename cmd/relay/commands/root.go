package commands

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"

	"github.com/florianilch/prompt-relay/internal/app"
	"github.com/florianilch/prompt-relay/internal/observability"
)

// Execute runs the root command with the given context and arguments.
func Execute(ctx context.Context, args []string, version, commit string) error {
	return newRootCommand(version, commit).Run(ctx, args)
}

func newRootCommand(version, commit string) *cli.Command {
	return &cli.Command{
		Name:    "relay",
		Usage:   "Gemini prompt relay",
		Version: fmt.Sprintf("%s (%s)", version, commit),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to a TOML config file",
				Sources: cli.EnvVars(app.EnvPrefix + "CONFIG"),
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "log level (debug|info|warn|error)",
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "log format (text|json)",
			},
			&cli.StringFlag{
				Name:  "log-exporter",
				Usage: "additional log exporter (none|stdout|otlp-http|otlp-grpc)",
			},
		},
		Before: loadDotEnv,
		Commands: []*cli.Command{
			serveCommand(),
			promptCommand(),
			authCommand(),
		},
	}
}

// loadDotEnv loads .env from the working directory for local development.
func loadDotEnv(ctx context.Context, _ *cli.Command) (context.Context, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return ctx, fmt.Errorf("failed to load .env: %w", err)
	}
	return ctx, nil
}

// flagKeys maps global flags to the config keys they override.
var flagKeys = map[string]string{
	"log-level":    "log.level",
	"log-format":   "log.format",
	"log-exporter": "log.exporter",
}

// loadConfig loads the config file at path and applies explicitly set flags on top.
func loadConfig(path string, cmd *cli.Command, environ func() []string) (*app.Config, error) {
	return app.LoadConfig(path, flagOverrides(cmd), environ)
}

func flagOverrides(cmd *cli.Command) map[string]any {
	overrides := make(map[string]any)
	for flag, key := range flagKeys {
		if cmd.IsSet(flag) {
			overrides[key] = cmd.String(flag)
		}
	}
	return overrides
}

// setupLogging installs the default logger described by cfg.
func setupLogging(ctx context.Context, cfg *app.Config) (func(context.Context) error, error) {
	level, err := cfg.Log.SlogLevel()
	if err != nil {
		return nil, err
	}

	shutdown, err := observability.Instrument(ctx, level, cfg.Log.Format, cfg.Log.Exporter)
	if err != nil {
		return nil, fmt.Errorf("failed to set up observability layer: %w", err)
	}
	return shutdown, nil
}

// flushLogs runs the observability shutdown without the canceled command context.
func flushLogs(ctx context.Context, shutdown func(context.Context) error) {
	if err := shutdown(context.WithoutCancel(ctx)); err != nil {
		fmt.Fprintf(os.Stderr, "failed to flush logs: %v\n", err)
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Starts the local relay server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "listen host",
			},
			&cli.IntFlag{
				Name:  "port",
				Usage: "listen port",
			},
		},
		Action: serveAction,
	}
}

func serveAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadServeConfig(cmd, os.Environ)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Set up observability before creating app
	shutdown, err := setupLogging(ctx, cfg)
	if err != nil {
		return err
	}
	defer flushLogs(ctx, shutdown)

	application, err := app.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to create app: %w", err)
	}

	slog.InfoContext(ctx, "starting", "addr", cfg.Server.Addr(), "model", cfg.Upstream.Model)

	if err := application.Start(ctx); err != nil {
		return fmt.Errorf("app failed to start: %w", err)
	}

	slog.InfoContext(ctx, "stopped gracefully")
	return nil
}

// loadServeConfig is loadConfig plus the serve-only listen flags.
func loadServeConfig(cmd *cli.Command, environ func() []string) (*app.Config, error) {
	overrides := flagOverrides(cmd)
	if cmd.IsSet("host") {
		overrides["server.host"] = cmd.String("host")
	}
	if cmd.IsSet("port") {
		overrides["server.port"] = cmd.Int("port")
	}
	return app.LoadConfig(cmd.String("config"), overrides, environ)
}
