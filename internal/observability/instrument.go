package observability

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	slogmulti "github.com/samber/slog-multi"
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/contrib/processors/minsev"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutlog"
	"go.opentelemetry.io/otel/propagation"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

// instrumentationName identifies log records exported through OpenTelemetry.
const instrumentationName = "github.com/florianilch/prompt-relay"

// Supported log exporters. Endpoints and headers for the OTLP exporters are
// taken from the standard OTEL_EXPORTER_OTLP_* environment variables.
const (
	ExporterNone     = "none"
	ExporterStdout   = "stdout"
	ExporterOTLPHTTP = "otlp-http"
	ExporterOTLPGRPC = "otlp-grpc"
)

// Instrument installs the default slog logger. Records always go to stdout in
// logFormat; with an exporter other than "none" they are also exported through
// the OpenTelemetry log SDK. The returned function flushes pending exports.
func Instrument(ctx context.Context, level slog.Level, logFormat, exporter string) (func(context.Context) error, error) {
	handler, err := newStdoutHandler(level, logFormat)
	if err != nil {
		return nil, err
	}

	shutdown := func(context.Context) error { return nil }

	logExporter, err := newLogExporter(ctx, exporter)
	if err != nil {
		return nil, err
	}
	if logExporter != nil {
		provider := sdklog.NewLoggerProvider(
			sdklog.WithProcessor(
				minsev.NewLogProcessor(sdklog.NewBatchProcessor(logExporter), toMinSeverity(level)),
			),
		)
		otelHandler := otelslog.NewHandler(instrumentationName, otelslog.WithLoggerProvider(provider))
		handler = slogmulti.Fanout(handler, otelHandler)
		shutdown = provider.Shutdown
	}

	slog.SetDefault(slog.New(handler))

	// W3C trace context for inbound extraction and outbound injection
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return shutdown, nil
}

// newStdoutHandler creates a handler for human-readable logs.
func newStdoutHandler(level slog.Level, logFormat string) (slog.Handler, error) {
	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	switch strings.ToLower(logFormat) {
	case "json":
		handler = slog.NewJSONHandler(os.Stdout, opts)
	case "text":
		handler = slog.NewTextHandler(os.Stdout, opts)
	default:
		return nil, fmt.Errorf("unsupported log format %q (expected: json, text)", logFormat)
	}

	return newContextHandler(handler), nil
}

// newLogExporter returns nil for the "none" exporter.
func newLogExporter(ctx context.Context, exporter string) (sdklog.Exporter, error) {
	switch strings.ToLower(exporter) {
	case "", ExporterNone:
		return nil, nil
	case ExporterStdout:
		return stdoutlog.New()
	case ExporterOTLPHTTP:
		return otlploghttp.New(ctx)
	case ExporterOTLPGRPC:
		return otlploggrpc.New(ctx)
	default:
		return nil, fmt.Errorf("unsupported log exporter %q (expected: none, stdout, otlp-http, otlp-grpc)", exporter)
	}
}

// toMinSeverity maps the slog level to the OpenTelemetry severity floor.
func toMinSeverity(level slog.Level) minsev.Severity {
	switch {
	case level >= slog.LevelError:
		return minsev.SeverityError
	case level >= slog.LevelWarn:
		return minsev.SeverityWarn
	case level >= slog.LevelInfo:
		return minsev.SeverityInfo
	default:
		return minsev.SeverityDebug
	}
}
