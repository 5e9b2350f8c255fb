package api

import (
	"context"
	"net/http"
	"time"
)

// healthCheckTimeout bounds each dependency probe.
const healthCheckTimeout = 5 * time.Second

// HealthChecker is implemented by dependency probes (Postgres, Redis).
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// HealthHandlers serves the liveness and readiness endpoints. Checkers are
// optional; in-memory mode runs with none.
type HealthHandlers struct {
	db    HealthChecker
	redis HealthChecker
}

// NewHealthHandlers creates health handlers. Either checker may be nil.
func NewHealthHandlers(db, redis HealthChecker) *HealthHandlers {
	return &HealthHandlers{db: db, redis: redis}
}

// HealthResponse is the body of both probe endpoints.
type HealthResponse struct {
	Status    string            `json:"status"`
	Checks    map[string]string `json:"checks,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

// Health is the liveness probe: the process is up.
func (h *HealthHandlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r.Context(), http.StatusOK, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
	})
}

// Ready is the readiness probe: every configured dependency answers within
// the check timeout. Any failing dependency turns the probe 503.
func (h *HealthHandlers) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	checks := make(map[string]string)
	healthy := true

	if h.db != nil {
		if err := h.db.HealthCheck(ctx); err != nil {
			checks["database"] = "unhealthy: " + err.Error()
			healthy = false
		} else {
			checks["database"] = "healthy"
		}
	}

	if h.redis != nil {
		if err := h.redis.HealthCheck(ctx); err != nil {
			checks["redis"] = "unhealthy: " + err.Error()
			healthy = false
		} else {
			checks["redis"] = "healthy"
		}
	}

	status := http.StatusOK
	resp := HealthResponse{
		Status:    "ready",
		Checks:    checks,
		Timestamp: time.Now().UTC(),
	}
	if !healthy {
		status = http.StatusServiceUnavailable
		resp.Status = "not ready"
	}
	writeJSON(w, r.Context(), status, resp)
}
