package server

import "net/http"

// ReadinessChecker reports whether the server should receive traffic.
type ReadinessChecker interface {
	IsReady() bool
}

type alwaysReady struct{}

func (alwaysReady) IsReady() bool { return true }

// livenessHandler always answers 200 while the process runs.
func livenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-cache")
		w.WriteHeader(http.StatusOK)
	}
}

// readinessHandler answers 200 when checker is ready, 503 otherwise.
func readinessHandler(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-cache")
		if checker.IsReady() {
			w.WriteHeader(http.StatusOK)
		} else {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
	}
}
