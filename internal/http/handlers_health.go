package httpx

import (
	"context"
	"net/http"
	"time"
)

const healthCheckTimeout = 2 * time.Second

// HealthCheck probes one dependency.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// healthHandler reports readiness. With no checks it is a plain liveness probe.
func healthHandler(checks []HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := http.StatusOK
		body := map[string]any{"status": "ok"}

		if len(checks) > 0 {
			ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
			defer cancel()
			results := make(map[string]string, len(checks))
			for _, c := range checks {
				if err := c.Check(ctx); err != nil {
					results[c.Name] = err.Error()
					status = http.StatusServiceUnavailable
					body["status"] = "degraded"
					continue
				}
				results[c.Name] = "ok"
			}
			body["checks"] = results
		}

		if r.Method == http.MethodHead {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			return
		}
		WriteJSON(w, status, body)
	}
}
