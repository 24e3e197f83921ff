package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/tidwall/gjson"

	"github.com/florianilch/prompt-relay/internal/gemini"
)

// Config holds the process-wide settings of the relay.
// It is built once at startup and never mutated afterwards.
type Config struct {
	// APIKey is the upstream credential. An empty key is not a construction
	// error: every request is answered with a misconfiguration response instead.
	APIKey  string
	BaseURL string
	Model   string
	// Timeout bounds each upstream call. Zero leaves it to the caller's context.
	Timeout time.Duration
}

// Request is the transport-agnostic inbound request.
type Request struct {
	Method string
	Body   []byte
}

// Response is the status and body to send back to the caller.
// Body is empty for 405 responses and JSON otherwise.
type Response struct {
	StatusCode int
	Body       []byte
}

// Handler relays prompts to Gemini. It holds no per-request state and is safe
// for concurrent use.
type Handler struct {
	cfg      Config
	client   *gemini.Client
	observer Observer
}

type handlerOptions struct {
	transport http.RoundTripper
	observer  Observer
}

// Option configures a Handler.
type Option func(*handlerOptions)

// WithTransport sets the transport for upstream calls.
func WithTransport(transport http.RoundTripper) Option {
	return func(o *handlerOptions) {
		o.transport = transport
	}
}

// WithObserver registers an observer for request outcomes and upstream latency.
func WithObserver(observer Observer) Option {
	return func(o *handlerOptions) {
		o.observer = observer
	}
}

// New creates a Handler for cfg.
func New(cfg Config, opts ...Option) (*Handler, error) {
	o := handlerOptions{}
	for _, opt := range opts {
		opt(&o)
	}

	clientOpts := []gemini.Option{gemini.WithTimeout(cfg.Timeout)}
	if o.transport != nil {
		clientOpts = append(clientOpts, gemini.WithTransport(o.transport))
	}

	client, err := gemini.NewClient(cfg.BaseURL, cfg.Model, cfg.APIKey, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	observer := o.observer
	if observer == nil {
		observer = nopObserver{}
	}

	return &Handler{
		cfg:      cfg,
		client:   client,
		observer: observer,
	}, nil
}

// Handle processes one inbound request. It always returns a well-formed
// response; failures are logged and mapped to an error body.
func (h *Handler) Handle(ctx context.Context, req Request) Response {
	if req.Method != http.MethodPost {
		h.observer.ObserveOutcome(OutcomeMethodNotAllowed)
		return Response{StatusCode: http.StatusMethodNotAllowed}
	}

	resp, err := h.generate(ctx, req.Body)
	if err != nil {
		return h.errorResponse(ctx, err)
	}

	h.observer.ObserveOutcome(OutcomeOK)
	return resp
}

// inboundBody is the JSON body sent by the frontend.
type inboundBody struct {
	Prompt *string
	IsJSON bool
}

// textBody is the success response. Text is omitted when upstream produced none.
type textBody struct {
	Text json.RawMessage `json:"text,omitempty"`
}

// errorBody is the failure response. Error is omitted when upstream sent no message.
type errorBody struct {
	Error json.RawMessage `json:"error,omitempty"`
}

func (h *Handler) generate(ctx context.Context, body []byte) (Response, error) {
	in, err := parseInboundBody(body)
	if err != nil {
		return Response{}, err
	}

	if h.cfg.APIKey == "" {
		return Response{}, ErrMissingCredential
	}

	upstreamReq := gemini.NewTextRequest(in.Prompt, in.IsJSON)

	start := time.Now()
	upstreamResp, err := h.client.GenerateContent(ctx, upstreamReq)
	elapsed := time.Since(start)
	if err != nil {
		var apiErr *gemini.APIError
		if errors.As(err, &apiErr) {
			h.observer.ObserveUpstream(apiErr.StatusCode, elapsed)
			return Response{}, fromAPIError(apiErr)
		}
		h.observer.ObserveUpstream(0, elapsed)
		return Response{}, err
	}
	h.observer.ObserveUpstream(upstreamResp.StatusCode, elapsed)

	text, ok, err := gemini.CandidateText(upstreamResp.Body)
	if err != nil {
		return Response{}, fmt.Errorf("parsing generateContent response: %w", err)
	}

	slog.DebugContext(ctx, "generated content",
		"structured", in.IsJSON,
		"has_text", ok,
		"upstream_ms", elapsed.Milliseconds(),
	)

	if ok && in.IsJSON {
		checkStructuredText(ctx, text)
	}

	out, err := encodeBody(textBody{Text: text})
	if err != nil {
		return Response{}, err
	}

	return Response{StatusCode: http.StatusOK, Body: out}, nil
}

// parseInboundBody decodes the frontend body. Anything but a JSON object fails.
// Keys match exactly and a repeated key keeps its last value. isJson selects
// structured output when truthy: false, 0, "", null and absent leave it off.
func parseInboundBody(body []byte) (inboundBody, error) {
	var in inboundBody
	if bytes.Equal(bytes.TrimSpace(body), []byte("null")) {
		return in, errors.New("decoding request body: body is null")
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return in, fmt.Errorf("decoding request body: %w", err)
	}

	if raw, ok := fields["prompt"]; ok {
		if err := json.Unmarshal(raw, &in.Prompt); err != nil {
			return in, fmt.Errorf("decoding prompt: %w", err)
		}
	}
	if raw, ok := fields["isJson"]; ok {
		in.IsJSON = truthy(raw)
	}
	return in, nil
}

func truthy(raw json.RawMessage) bool {
	v := gjson.ParseBytes(raw)
	switch v.Type {
	case gjson.True, gjson.JSON:
		return true
	case gjson.Number:
		return v.Num != 0
	case gjson.String:
		return v.Str != ""
	default:
		return false
	}
}

// errorResponse is the single boundary turning internal failures into responses.
func (h *Handler) errorResponse(ctx context.Context, err error) Response {
	if errors.Is(err, ErrMissingCredential) {
		slog.WarnContext(ctx, "upstream credential is not configured")
		h.observer.ObserveOutcome(OutcomeMisconfigured)
		return h.jsonError(ctx, http.StatusInternalServerError, msgMissingCredential)
	}

	var upstreamErr *UpstreamError
	if errors.As(err, &upstreamErr) {
		slog.ErrorContext(ctx, "Gemini API error",
			"status", upstreamErr.StatusCode,
			"payload", string(upstreamErr.Payload),
		)
		out, encErr := encodeBody(errorBody{Error: upstreamErr.Message})
		if encErr == nil {
			h.observer.ObserveOutcome(OutcomeUpstreamError)
			return Response{StatusCode: upstreamErr.StatusCode, Body: out}
		}
		err = encErr
	}

	slog.ErrorContext(ctx, "server function error", "error", err)
	h.observer.ObserveOutcome(OutcomeInternalError)
	return h.jsonError(ctx, http.StatusInternalServerError, msgInternal)
}

func (h *Handler) jsonError(ctx context.Context, status int, msg string) Response {
	raw, _ := json.Marshal(msg)
	out, err := encodeBody(errorBody{Error: raw})
	if err != nil {
		slog.ErrorContext(ctx, "failed to encode error response", "error", err)
	}
	return Response{StatusCode: status, Body: out}
}

// encodeBody marshals v without HTML escaping and without a trailing newline.
func encodeBody(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("encoding response body: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
