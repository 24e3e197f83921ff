package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingTransport returns a canned response and keeps the last request.
type recordingTransport struct {
	responseBody   string
	responseStatus int
	err            error

	lastRequest *http.Request
	lastBody    []byte
	calls       int
}

func (m *recordingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	m.calls++
	m.lastRequest = req
	if req.Body != nil {
		m.lastBody, _ = io.ReadAll(req.Body)
	}
	if m.err != nil {
		return nil, m.err
	}

	return &http.Response{
		StatusCode: m.responseStatus,
		Body:       io.NopCloser(strings.NewReader(m.responseBody)),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Request:    req,
	}, nil
}

func strPtr(s string) *string { return &s }

func TestNewTextRequest(t *testing.T) {
	t.Run("plain text omits generationConfig", func(t *testing.T) {
		body, err := json.Marshal(NewTextRequest(strPtr("hi"), false))
		require.NoError(t, err)
		assert.JSONEq(t, `{"contents":[{"role":"user","parts":[{"text":"hi"}]}]}`, string(body))
	})

	t.Run("structured output adds suggestions schema", func(t *testing.T) {
		body, err := json.Marshal(NewTextRequest(strPtr("hi"), true))
		require.NoError(t, err)
		assert.JSONEq(t, `{
			"contents":[{"role":"user","parts":[{"text":"hi"}]}],
			"generationConfig":{
				"responseMimeType":"application/json",
				"responseSchema":{"type":"OBJECT","properties":{"suggestions":{"type":"ARRAY","items":{"type":"STRING"}}}}
			}
		}`, string(body))
	})

	t.Run("absent prompt sends part without text", func(t *testing.T) {
		body, err := json.Marshal(NewTextRequest(nil, false))
		require.NoError(t, err)
		assert.JSONEq(t, `{"contents":[{"role":"user","parts":[{}]}]}`, string(body))
	})
}

func TestNewClient(t *testing.T) {
	tests := []struct {
		name    string
		baseURL string
		model   string
		wantErr bool
	}{
		{name: "valid", baseURL: "https://generativelanguage.googleapis.com/v1beta", model: "gemini-2.5-flash"},
		{name: "trailing slash", baseURL: "https://example.com/v1beta/", model: "m"},
		{name: "missing model", baseURL: "https://example.com", model: "", wantErr: true},
		{name: "relative base URL", baseURL: "/v1beta", model: "m", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewClient(tt.baseURL, tt.model, "key")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestClientGenerateContent(t *testing.T) {
	t.Run("sends request to model endpoint with key query", func(t *testing.T) {
		transport := &recordingTransport{responseStatus: http.StatusOK, responseBody: `{"candidates":[]}`}
		client, err := NewClient("https://example.com/v1beta/", "gemini-test", "secret-key", WithTransport(transport))
		require.NoError(t, err)

		resp, err := client.GenerateContent(context.Background(), NewTextRequest(strPtr("hello"), false))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.JSONEq(t, `{"candidates":[]}`, string(resp.Body))

		req := transport.lastRequest
		require.NotNil(t, req)
		assert.Equal(t, http.MethodPost, req.Method)
		assert.Equal(t, "https://example.com/v1beta/models/gemini-test:generateContent?key=secret-key", req.URL.String())
		assert.Equal(t, "application/json", req.Header.Get("Content-Type"))
		assert.JSONEq(t, `{"contents":[{"role":"user","parts":[{"text":"hello"}]}]}`, string(transport.lastBody))
	})

	t.Run("other 2xx status is reported", func(t *testing.T) {
		transport := &recordingTransport{responseStatus: http.StatusAccepted, responseBody: `{}`}
		client, err := NewClient("https://example.com", "m", "k", WithTransport(transport))
		require.NoError(t, err)

		resp, err := client.GenerateContent(context.Background(), NewTextRequest(strPtr("x"), false))
		require.NoError(t, err)
		assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	})

	t.Run("non-2xx status returns APIError with body", func(t *testing.T) {
		transport := &recordingTransport{
			responseStatus: http.StatusTooManyRequests,
			responseBody:   `{"error":{"code":429,"message":"rate limited"}}`,
		}
		client, err := NewClient("https://example.com", "m", "k", WithTransport(transport))
		require.NoError(t, err)

		_, err = client.GenerateContent(context.Background(), NewTextRequest(strPtr("x"), false))

		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)
		assert.JSONEq(t, `{"error":{"code":429,"message":"rate limited"}}`, string(apiErr.Body))
	})

	t.Run("transport failure does not leak key", func(t *testing.T) {
		transport := &recordingTransport{err: errors.New("connection refused")}
		client, err := NewClient("https://example.com", "m", "super-secret", WithTransport(transport))
		require.NoError(t, err)

		_, err = client.GenerateContent(context.Background(), NewTextRequest(strPtr("x"), false))
		require.Error(t, err)
		assert.NotContains(t, err.Error(), "super-secret")
		assert.Contains(t, err.Error(), "connection refused")
	})
}

func TestEndpointOmitsKey(t *testing.T) {
	client, err := NewClient("https://example.com/v1beta", "m", "secret")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/v1beta/models/m:generateContent", client.Endpoint())
}
