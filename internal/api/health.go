package api

import (
	"net/http"

	"github.com/inkwell-io/inkwell/server/internal/api/respond"
	"github.com/inkwell-io/inkwell/server/internal/health"
)

// HealthHandler exposes liveness and readiness probes.
type HealthHandler struct {
	svc *health.ServiceHealthChecker
}

func NewHealthHandler(svc *health.ServiceHealthChecker) *HealthHandler {
	return &HealthHandler{svc: svc}
}

// CheckHealth GET /api/health. Liveness: the process is up.
func (h *HealthHandler) CheckHealth(w http.ResponseWriter, _ *http.Request) {
	respond.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// CheckReady GET /api/health/ready. Readiness: every dependency reports healthy.
func (h *HealthHandler) CheckReady(w http.ResponseWriter, _ *http.Request) {
	if h.svc == nil || !h.svc.IsHealthy() {
		respond.WriteError(w, http.StatusServiceUnavailable, "dependencies unhealthy")
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
