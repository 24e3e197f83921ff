package proxy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/florianilch/prompt-relay/internal/observability/middleware"
	"github.com/florianilch/prompt-relay/internal/relay"
)

// Routes served by the proxy. FunctionPath matches the Netlify function URL so
// frontends work unchanged against a local server.
const (
	FunctionPath  = "/.netlify/functions/getAiResponse"
	GeneratePath  = "/api/generate"
	LivenessPath  = "/health/liveness"
	ReadinessPath = "/health/readiness"
	MetricsPath   = "/metrics"
)

// maxRequestBytes bounds inbound request bodies.
const maxRequestBytes = 1 << 20

// ReadinessChecker reports whether the application can serve traffic.
type ReadinessChecker interface {
	IsReady() bool
}

// Proxy serves the relay over HTTP.
type Proxy struct {
	handler http.Handler
	server  *http.Server
	addr    string
}

// Compile-time check that Proxy implements http.Handler
var _ http.Handler = (*Proxy)(nil)

type proxyOptions struct {
	metrics http.Handler
	logger  *slog.Logger
}

// Option configures a Proxy.
type Option func(*proxyOptions)

// WithMetricsHandler exposes h on MetricsPath.
func WithMetricsHandler(h http.Handler) Option {
	return func(o *proxyOptions) {
		o.metrics = h
	}
}

// WithLogger sets the request logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *proxyOptions) {
		o.logger = logger
	}
}

// New creates a Proxy relaying requests through relayHandler.
func New(relayHandler *relay.Handler, health ReadinessChecker, opts ...Option) (*Proxy, error) {
	if relayHandler == nil {
		return nil, errors.New("relay handler cannot be nil")
	}
	if health == nil {
		return nil, errors.New("readiness checker cannot be nil")
	}

	o := proxyOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}

	generate := &GenerateHandler{Relay: relayHandler}

	mux := http.NewServeMux()
	// No method patterns: the relay answers non-POST requests itself
	mux.Handle(FunctionPath, generate)
	mux.Handle(GeneratePath, generate)
	mux.Handle("GET "+LivenessPath, livenessHandler())
	mux.Handle("GET "+ReadinessPath, readinessHandler(health))
	if o.metrics != nil {
		mux.Handle("GET "+MetricsPath, o.metrics)
	}

	handler := applyMiddlewares(mux,
		Recovery,
		middleware.RequestIDGeneration,
		middleware.Logging(o.logger),
		middleware.TraceContextExtraction,
		middleware.RequestIDPropagation,
		RequestSizeLimit(maxRequestBytes),
	)

	return &Proxy{handler: handler}, nil
}

// ServeHTTP implements http.Handler.
func (p *Proxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p.handler.ServeHTTP(w, r)
}

// Start listens on addr and serves in the background. Listen errors are
// returned directly; later serve errors are delivered on the returned channel.
func (p *Proxy) Start(ctx context.Context, addr string) (<-chan error, error) {
	listener, err := (&net.ListenConfig{}).Listen(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	p.server = &http.Server{
		Handler:           p,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// Bounds the upstream call plus response write
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  2 * time.Minute,
		BaseContext: func(net.Listener) context.Context {
			return context.WithoutCancel(ctx)
		},
	}

	p.addr = listener.Addr().String()
	slog.InfoContext(ctx, "proxy listening", "addr", p.addr)

	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		if err := p.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	return errCh, nil
}

// Addr returns the address the proxy listens on, empty before Start.
func (p *Proxy) Addr() string {
	return p.addr
}

// Shutdown gracefully stops the server, waiting for in-flight requests until ctx is done.
func (p *Proxy) Shutdown(ctx context.Context) error {
	if p.server == nil {
		return nil
	}
	if err := p.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("proxy shutdown: %w", err)
	}
	return nil
}
