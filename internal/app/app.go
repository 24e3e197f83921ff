package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/florianilch/prompt-relay/internal/credential"
	"github.com/florianilch/prompt-relay/internal/observability"
	"github.com/florianilch/prompt-relay/internal/proxy"
	"github.com/florianilch/prompt-relay/internal/relay"
)

// shutdownTimeout bounds graceful shutdown of all services.
const shutdownTimeout = 5 * time.Second

// App orchestrates the lifecycle of the proxy server and related services.
type App struct {
	addr   string
	proxy  *proxy.Proxy
	health *Health
}

// New creates a new App instance. The API key is read once here and never
// re-read while serving.
func New(ctx context.Context, cfg *Config) (*App, error) {
	store, err := cfg.Auth.NewCredentialStore(os.LookupEnv)
	if err != nil {
		return nil, fmt.Errorf("failed to create credential store: %w", err)
	}

	metrics := observability.NewMetrics()

	relayHandler, err := NewRelayHandler(ctx, cfg, store, relay.WithObserver(metrics))
	if err != nil {
		return nil, err
	}

	health := NewHealth()

	proxyServer, err := proxy.New(relayHandler, health, proxy.WithMetricsHandler(metrics.Handler()))
	if err != nil {
		return nil, fmt.Errorf("failed to create proxy: %w", err)
	}

	return &App{
		addr:   cfg.Server.Addr(),
		proxy:  proxyServer,
		health: health,
	}, nil
}

// NewRelayHandler reads the API key from source and creates the relay handler.
// A missing key is logged but not an error; the relay reports it per request.
func NewRelayHandler(ctx context.Context, cfg *Config, source credential.Source, opts ...relay.Option) (*relay.Handler, error) {
	apiKey, err := source.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read API key: %w", err)
	}
	if apiKey == "" {
		slog.WarnContext(ctx, "no Gemini API key configured, requests will be answered with 500",
			"storage", cfg.Auth.Storage,
		)
	}

	relayHandler, err := relay.New(cfg.RelayConfig(apiKey), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create relay: %w", err)
	}

	return relayHandler, nil
}

// Start starts all services and blocks until shutdown is triggered.
// Uses errgroup for runtime error monitoring and shutdown function collection for coordinated cleanup.
func (a *App) Start(ctx context.Context) error {
	g, gCtx := errgroup.WithContext(ctx)

	var shutdownFuncs []func(context.Context) error

	// Startup phase: Start services
	slog.InfoContext(gCtx, "starting proxy server")
	proxyErrCh, err := a.proxy.Start(gCtx, a.addr)
	if err != nil {
		return fmt.Errorf("proxy startup failed: %w", err)
	}
	shutdownFuncs = append(shutdownFuncs, a.proxy.Shutdown)

	a.health.SetReady(true)

	// Monitor runtime errors - errgroup cancels context on first error
	g.Go(func() error {
		select {
		case err := <-proxyErrCh:
			if err != nil {
				slog.ErrorContext(gCtx, "proxy runtime error", "error", err)
				return fmt.Errorf("proxy: %w", err)
			}
			return nil
		case <-gCtx.Done():
			return nil
		}
	})

	runtimeErr := g.Wait()

	// Fail readiness first so load balancers stop routing during drain
	a.health.SetReady(false)
	slog.InfoContext(gCtx, "shutting down services")

	// Shutdown phase: Stop all services
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	var errs []error
	if runtimeErr != nil {
		errs = append(errs, fmt.Errorf("runtime: %w", runtimeErr))
	}

	for i := len(shutdownFuncs) - 1; i >= 0; i-- {
		if err := shutdownFuncs[i](shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "service shutdown failed", "error", err)
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	slog.InfoContext(shutdownCtx, "application stopped")
	return nil
}

// Addr returns the proxy's listen address once started.
func (a *App) Addr() string {
	return a.proxy.Addr()
}
