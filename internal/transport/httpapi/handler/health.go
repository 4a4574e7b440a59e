package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/kislikjeka/userregistry/pkg/logger"
)

// StorePinger defines the interface for checking record store connectivity
type StorePinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles health check requests
type HealthHandler struct {
	store   StorePinger
	driver  string
	version string
	started time.Time
	logger  *logger.Logger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(store StorePinger, driver, version string, log *logger.Logger) *HealthHandler {
	if log == nil {
		log = logger.NewNop()
	}
	return &HealthHandler{
		store:   store,
		driver:  driver,
		version: version,
		started: time.Now(),
		logger:  log.WithField("component", "health_handler"),
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status  string            `json:"status"`
	Version string            `json:"version"`
	Checks  map[string]string `json:"checks"`
	Uptime  string            `json:"uptime,omitempty"`
}

// GetHealth handles GET /health
// Includes store connectivity; degraded answers 503
func (h *HealthHandler) GetHealth(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{"api": "healthy"}
	status := "ok"

	// The cause stays in the log; driver errors can name hosts and users
	if err := h.ping(r.Context()); err != nil {
		h.logger.WithContext(r.Context()).WithError(err).Warn("store health check failed", "driver", h.driver)
		checks["store"] = "unhealthy"
		status = "degraded"
	} else {
		checks["store"] = "healthy"
	}
	checks["store_driver"] = h.driver

	httpStatus := http.StatusOK
	if status == "degraded" {
		httpStatus = http.StatusServiceUnavailable
	}

	respondJSON(w, HealthResponse{
		Status:  status,
		Version: h.version,
		Uptime:  time.Since(h.started).Round(time.Second).String(),
		Checks:  checks,
	}, httpStatus)
}

// GetReadiness handles GET /health/ready
// Readiness probe - checks if the store accepts traffic
func (h *HealthHandler) GetReadiness(w http.ResponseWriter, r *http.Request) {
	if err := h.ping(r.Context()); err != nil {
		h.logger.WithContext(r.Context()).WithError(err).Warn("store readiness check failed", "driver", h.driver)
		respondError(w, "store not ready", http.StatusServiceUnavailable)
		return
	}

	respondJSON(w, map[string]string{"status": "ready"}, http.StatusOK)
}

// GetLiveness handles GET /health/live
// Liveness probe - checks if the process is alive
func GetLiveness(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, map[string]string{"status": "alive"}, http.StatusOK)
}

func (h *HealthHandler) ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return h.store.Ping(ctx)
}
