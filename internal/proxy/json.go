package proxy

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/florianilch/prompt-relay/internal/relay"
)

// writeResponse writes a relay response. Non-empty bodies are always JSON.
func writeResponse(ctx context.Context, w http.ResponseWriter, resp relay.Response) {
	if len(resp.Body) > 0 {
		w.Header().Set("Content-Type", "application/json")
	}
	w.WriteHeader(resp.StatusCode)
	if len(resp.Body) == 0 {
		return
	}
	if _, err := w.Write(resp.Body); err != nil {
		slog.ErrorContext(ctx, "failed to write response", "error", err)
	}
}

// writeError writes {"error": msg} with the given status code.
// Headers and status are written before encoding; a failed encode leaves a partial body.
func writeError(ctx context.Context, w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(map[string]string{"error": msg}); err != nil {
		slog.ErrorContext(ctx, "failed to encode JSON response", "error", err)
	}
}
