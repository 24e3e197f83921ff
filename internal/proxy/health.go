package proxy

import "net/http"

// livenessHandler always answers 200 while the process is serving.
func livenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-cache")
		writeStatus(w, http.StatusOK, `{"status":"alive"}`)
	}
}

// readinessHandler answers 200 when checker reports ready, 503 otherwise.
func readinessHandler(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-cache")
		if checker.IsReady() {
			writeStatus(w, http.StatusOK, `{"status":"ready"}`)
			return
		}
		writeStatus(w, http.StatusServiceUnavailable, `{"status":"not_ready"}`)
	}
}

func writeStatus(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}
