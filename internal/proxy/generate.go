package proxy

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/florianilch/prompt-relay/internal/relay"
)

// GenerateHandler exposes the relay as an http.Handler.
type GenerateHandler struct {
	Relay *relay.Handler
}

// Compile-time check to ensure GenerateHandler implements http.Handler
var _ http.Handler = (*GenerateHandler)(nil)

// ServeHTTP reads the body and writes the relay's response verbatim.
func (h *GenerateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var body []byte
	if r.Method == http.MethodPost {
		var err error
		body, err = io.ReadAll(r.Body)
		if err != nil {
			var maxBytesErr *http.MaxBytesError
			if errors.As(err, &maxBytesErr) {
				slog.WarnContext(ctx, "request exceeds size limit", "limit_bytes", maxBytesErr.Limit)
				writeError(ctx, w, http.StatusRequestEntityTooLarge, http.StatusText(http.StatusRequestEntityTooLarge))
				return
			}
			// Truncated body: the relay reports it like any other malformed input
			slog.WarnContext(ctx, "failed to read request body", "error", err)
		}
	}

	if ctx.Err() != nil {
		return
	}

	writeResponse(ctx, w, h.Relay.Handle(ctx, relay.Request{Method: r.Method, Body: body}))
}
