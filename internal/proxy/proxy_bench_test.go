package proxy

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// BenchmarkProxy measures end-to-end latency through routing, middleware,
// the relay and response encoding. Upstream is mocked.
func BenchmarkProxy(b *testing.B) {
	scenarios := []struct {
		name         string
		requestBody  string
		upstreamBody string
	}{
		{
			name:         "text",
			requestBody:  `{"prompt":"Write a short poem about the sea."}`,
			upstreamBody: geminiSuccess,
		},
		{
			name:         "structured",
			requestBody:  `{"prompt":"Suggest three names for a cat.","isJson":true}`,
			upstreamBody: `{"candidates":[{"content":{"parts":[{"text":"{\"suggestions\":[\"Miso\",\"Tofu\",\"Pixel\"]}"}]}}]}`,
		},
	}

	for _, s := range scenarios {
		b.Run(s.name, func(b *testing.B) {
			transport := &mockGeminiTransport{responseStatus: http.StatusOK, responseBody: s.upstreamBody}
			server := httptest.NewServer(newTestProxy(b, transport, true))
			defer server.Close()

			b.ReportAllocs()
			b.ResetTimer()

			for b.Loop() {
				resp, err := http.Post(server.URL+FunctionPath, "application/json", strings.NewReader(s.requestBody))
				if err != nil {
					b.Fatalf("Request failed: %v", err)
				}
				if resp.StatusCode != http.StatusOK {
					b.Fatalf("Unexpected status code: %d", resp.StatusCode)
				}
				_, _ = io.Copy(io.Discard, resp.Body)
				_ = resp.Body.Close()
			}
		})
	}
}

// BenchmarkProxyConcurrentThroughput simulates concurrent frontend load.
func BenchmarkProxyConcurrentThroughput(b *testing.B) {
	transport := &mockGeminiTransport{responseStatus: http.StatusOK, responseBody: geminiSuccess}
	server := httptest.NewServer(newTestProxy(b, transport, true))
	defer server.Close()

	b.ReportAllocs()
	b.ResetTimer()

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			resp, err := http.Post(server.URL+FunctionPath, "application/json", strings.NewReader(`{"prompt":"hi"}`))
			if err != nil {
				b.Fatalf("Request failed: %v", err)
			}
			if resp.StatusCode != http.StatusOK {
				b.Fatalf("Unexpected status code: %d", resp.StatusCode)
			}
			_, _ = io.Copy(io.Discard, resp.Body)
			_ = resp.Body.Close()
		}
	})
}
