package api

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/okian/posecoach/pkg/metrics"
)

// HealthHandler serves liveness and Prometheus metrics.
type HealthHandler struct {
	started time.Time
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler() *HealthHandler {
	return &HealthHandler{started: time.Now()}
}

type healthResponse struct {
	Status        string  `json:"status"`
	UptimeSeconds float64 `json:"uptimeSeconds"`
}

// HandleHealth handles GET /healthz. Clients asking for text/plain or
// OpenMetrics get the metrics exposition instead of the JSON status.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.NotFound(w, r)
		return
	}
	switch accept := r.Header.Get("Accept"); {
	case containsAny(accept, "application/openmetrics-text", "text/plain"):
		h.MetricsHandler().ServeHTTP(w, r)
	default:
		writeJSON(w, http.StatusOK, healthResponse{Status: "ok", UptimeSeconds: time.Since(h.started).Seconds()})
	}
}

// MetricsHandler exposes the custom registry.
func (h *HealthHandler) MetricsHandler() http.Handler {
	return promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{})
}
