// pkg/metrics/middleware.go
package metrics

import (
	"net/http"
	"time"
)

type StatusRecorder struct {
	http.ResponseWriter
	Status int
}

func (s *StatusRecorder) WriteHeader(code int) {
	s.Status = code
	s.ResponseWriter.WriteHeader(code)
}

func HTTPStatusToBiz(code int) string {
	if code >= 200 && code < 400 {
		return "SUCCESS"
	}
	return "FAILED"
}

// Middleware records a counter and a histogram sample for every request
// except the /metrics scrape itself.
func Middleware(service string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/metrics" {
				next.ServeHTTP(w, r)
				return
			}
			start := time.Now()
			rec := &StatusRecorder{ResponseWriter: w, Status: http.StatusOK}
			next.ServeHTTP(rec, r)

			statusLabel := HTTPStatusToBiz(rec.Status)
			IncRequest(service, statusLabel, r.Method)
			ObserveDuration(service, statusLabel, time.Since(start).Seconds())
		})
	}
}
