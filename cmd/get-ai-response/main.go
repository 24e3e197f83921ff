package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/florianilch/prompt-relay/internal/app"
	"github.com/florianilch/prompt-relay/internal/function"
	"github.com/florianilch/prompt-relay/internal/observability"
)

func main() {
	ctx := context.Background()

	handler, err := newHandler(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Function initialization failed", "error", err)
		os.Exit(1)
	}

	lambda.Start(handler.Handle)
}

// newHandler builds the function handler once per cold start. The API key is
// read here and reused by every invocation of this instance.
func newHandler(ctx context.Context) (*function.Handler, error) {
	cfg, err := app.LoadConfig("", nil, os.Environ)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	level, err := cfg.Log.SlogLevel()
	if err != nil {
		return nil, err
	}

	// Function logs are collected line by line by the platform
	if _, err := observability.Instrument(ctx, level, "json", observability.ExporterNone); err != nil {
		return nil, fmt.Errorf("failed to set up observability layer: %w", err)
	}

	store, err := cfg.Auth.NewCredentialStore(os.LookupEnv)
	if err != nil {
		return nil, fmt.Errorf("failed to create credential store: %w", err)
	}

	relayHandler, err := app.NewRelayHandler(ctx, cfg, store)
	if err != nil {
		return nil, err
	}

	return &function.Handler{Relay: relayHandler}, nil
}
