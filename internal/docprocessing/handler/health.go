package handler

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/luminary/luminary-backend/pkg/httputil"
)

// LivenessMessage is the body of GET /
const LivenessMessage = "✅ Luminary Invoice Backend is Running!"

// HealthCheck reports the state of one dependency; "status" is "up" or "down"
type HealthCheck func(ctx context.Context) map[string]string

// HealthHandler serves GET / and GET /health
type HealthHandler struct {
	service string
	checks  map[string]HealthCheck
}

func NewHealthHandler(serviceName string) *HealthHandler {
	return &HealthHandler{
		service: serviceName,
		checks:  make(map[string]HealthCheck),
	}
}

// AddCheck registers a dependency check under name
func (h *HealthHandler) AddCheck(name string, check HealthCheck) {
	h.checks[name] = check
}

// Liveness handles GET /
func (h *HealthHandler) Liveness(w http.ResponseWriter, _ *http.Request) {
	httputil.Text(w, http.StatusOK, LivenessMessage)
}

// Health handles GET /health. Any dependency down turns the response into 503.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	status := "healthy"
	deps := make(map[string]map[string]string, len(names))
	for _, name := range names {
		res := h.checks[name](ctx)
		deps[name] = res
		if res["status"] != "up" {
			status = "degraded"
		}
	}

	code := http.StatusOK
	if status != "healthy" {
		code = http.StatusServiceUnavailable
	}

	httputil.JSON(w, code, map[string]interface{}{
		"status":       status,
		"service":      h.service,
		"dependencies": deps,
	})
}
