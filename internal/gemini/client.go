package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Client calls the Gemini generateContent endpoint for a single model.
// It is safe for concurrent use.
type Client struct {
	endpoint   *url.URL
	apiKey     string
	httpClient *http.Client
}

type clientOptions struct {
	transport http.RoundTripper
	timeout   time.Duration
}

// Option configures a Client.
type Option func(*clientOptions)

// WithTransport sets the transport used for upstream requests.
// Defaults to http.DefaultTransport wrapped with otelhttp for trace propagation.
func WithTransport(transport http.RoundTripper) Option {
	return func(o *clientOptions) {
		o.transport = transport
	}
}

// WithTimeout bounds each upstream round trip. Zero means no client-side limit.
func WithTimeout(timeout time.Duration) Option {
	return func(o *clientOptions) {
		o.timeout = timeout
	}
}

// NewClient creates a client for baseURL (e.g. https://generativelanguage.googleapis.com/v1beta)
// and model. The API key is sent as the "key" query parameter.
func NewClient(baseURL, model, apiKey string, opts ...Option) (*Client, error) {
	if model == "" {
		return nil, errors.New("model cannot be empty")
	}

	base, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q: scheme and host required", baseURL)
	}

	o := clientOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.transport == nil {
		o.transport = otelhttp.NewTransport(http.DefaultTransport)
	}

	return &Client{
		endpoint: base.JoinPath("models", model+":generateContent"),
		apiKey:   apiKey,
		httpClient: &http.Client{
			Transport: o.transport,
			Timeout:   o.timeout,
		},
	}, nil
}

// Endpoint returns the request URL without credentials, suitable for logging.
func (c *Client) Endpoint() string {
	return c.endpoint.String()
}

// Response is the status and raw body of a successful (2xx) generateContent call.
type Response struct {
	StatusCode int
	Body       []byte
}

// GenerateContent sends req upstream. Non-2xx responses are returned as *APIError.
func (c *Client) GenerateContent(ctx context.Context, req *GenerateContentRequest) (*Response, error) {
	requestBody, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshaling generateContent request: %w", err)
	}

	u := *c.endpoint
	u.RawQuery = url.Values{"key": []string{c.apiKey}}.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(requestBody))
	if err != nil {
		return nil, fmt.Errorf("creating generateContent request: %w", redactURLError(err, c.Endpoint()))
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("generateContent request failed: %w", redactURLError(err, c.Endpoint()))
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading generateContent response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: body}
	}

	return &Response{StatusCode: resp.StatusCode, Body: body}, nil
}

// redactURLError replaces the URL of a *url.Error so the key never ends up in logs.
func redactURLError(err error, redacted string) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		urlErr.URL = redacted
	}
	return err
}
