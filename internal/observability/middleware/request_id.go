package middleware

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/florianilch/prompt-relay/internal/observability"
)

// Request ID headers, in order of preference. Netlify sets X-Nf-Request-Id on
// every function invocation.
const (
	headerRequestID        = "X-Request-ID"
	headerNetlifyRequestID = "X-Nf-Request-Id"
)

// maxRequestIDLength bounds client-supplied IDs before they reach logs.
const maxRequestIDLength = 128

// getRequestID reads the request ID from the client or platform header, or generates one.
func getRequestID(r *http.Request) string {
	for _, header := range []string{headerRequestID, headerNetlifyRequestID} {
		if id := r.Header.Get(header); isValidRequestID(id) {
			return id
		}
	}
	return uuid.NewString()
}

// isValidRequestID accepts non-empty, bounded, printable ASCII IDs.
func isValidRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLength {
		return false
	}
	for i := 0; i < len(id); i++ {
		if id[i] < 0x21 || id[i] > 0x7e {
			return false
		}
	}
	return true
}

// RequestIDGeneration resolves the request ID and stores it in the request
// context, where every log record of the request picks it up.
func RequestIDGeneration(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := observability.ContextWithRequestID(r.Context(), getRequestID(r))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequestIDPropagation echoes the request ID in the X-Request-ID response
// header and adds it to the request log. Must run inside Logging.
func RequestIDPropagation(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requestID, ok := observability.RequestIDFromContext(r.Context()); ok {
			// Set before the handler runs so it survives a recovered panic
			w.Header().Set(headerRequestID, requestID)
			SetLogAttrs(r.Context(), slog.String("request_id", requestID))
		}

		next.ServeHTTP(w, r)
	})
}
