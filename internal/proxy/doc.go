// Package proxy serves the relay over plain HTTP for local development and
// self-hosting.
//
// Routes:
//
//	/.netlify/functions/getAiResponse   relay (same URL as the deployed function)
//	/api/generate                       relay
//	GET /health/liveness                always 200
//	GET /health/readiness               200 once the app is ready, 503 otherwise
//	GET /metrics                        Prometheus metrics, when configured
//
// Relay routes accept any method; the relay itself rejects non-POST requests.
package proxy
