package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/httplog/v3"
)

// Logging logs HTTP requests with method, path, status, and duration.
// Probe and metrics scrapes are only logged when they fail.
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return httplog.RequestLogger(logger, &httplog.Options{
		Schema: httplog.SchemaECS.Concise(true),

		// Prompts and generated text must never reach the request log
		LogRequestHeaders:  []string{"Content-Type", "Origin"},
		LogResponseHeaders: []string{},
		LogRequestBody:     nil,
		LogResponseBody:    nil,

		Skip: func(r *http.Request, respStatus int) bool {
			return isInfraPath(r.URL.Path) && respStatus < http.StatusBadRequest
		},

		RecoverPanics: false, // dedicated Recovery middleware
	})
}

// SetLogAttrs sets attributes on the request log.
func SetLogAttrs(ctx context.Context, attrs ...slog.Attr) {
	httplog.SetAttrs(ctx, attrs...)
}

func isInfraPath(path string) bool {
	return strings.HasPrefix(path, "/health/") || path == "/metrics"
}
