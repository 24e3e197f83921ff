// Package function adapts the relay to AWS Lambda proxy events, the envelope
// Netlify Functions use for Go handlers.
package function

import (
	"context"
	"encoding/base64"
	"log/slog"
	"net/http"

	"github.com/aws/aws-lambda-go/events"

	"github.com/florianilch/prompt-relay/internal/observability"
	"github.com/florianilch/prompt-relay/internal/relay"
)

// netlifyRequestIDHeader is set by Netlify on every function invocation.
const netlifyRequestIDHeader = "x-nf-request-id"

// Handler serves Lambda proxy events.
type Handler struct {
	Relay *relay.Handler
}

// Handle converts the event into a relay request and the relay response back
// into a proxy response. It never returns an error: failures are reported in
// the response so the platform does not replace them with its own error page.
func (h *Handler) Handle(ctx context.Context, event events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	if id := requestID(event); id != "" {
		ctx = observability.ContextWithRequestID(ctx, id)
	}

	body := []byte(event.Body)
	if event.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(event.Body)
		if err != nil {
			// Left undecoded: the relay rejects it as malformed JSON
			slog.WarnContext(ctx, "failed to decode base64 request body", "error", err)
		} else {
			body = decoded
		}
	}

	resp := h.Relay.Handle(ctx, relay.Request{Method: event.HTTPMethod, Body: body})

	out := events.APIGatewayProxyResponse{
		StatusCode: resp.StatusCode,
		Body:       string(resp.Body),
	}
	if len(resp.Body) > 0 {
		out.Headers = map[string]string{"Content-Type": "application/json"}
	}

	return out, nil
}

// requestID prefers the Netlify header and falls back to the Lambda request ID.
func requestID(event events.APIGatewayProxyRequest) string {
	for name, value := range event.Headers {
		if http.CanonicalHeaderKey(name) == http.CanonicalHeaderKey(netlifyRequestIDHeader) && value != "" {
			return value
		}
	}
	return event.RequestContext.RequestID
}
