// services/api-gateway/handlers/health.go
package handlers

import (
	"net/http"
	"time"
)

// HealthHandler never touches the gateway.
func HealthHandler(service string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, HealthOut{
			Status:  "ok",
			Service: service,
			TS:      time.Now().UTC().Format(time.RFC3339),
		})
	}
}
