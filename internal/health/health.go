// Package health provides the liveness and readiness endpoints of the
// synthesis service.
package health

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/labsonar/synthesis/internal/ambient"
	"github.com/labsonar/synthesis/internal/dataset"
)

// HealthCheck serves liveness and readiness probes. Readiness requires the
// spectral tables to load and the dataset filesystem to accept writes.
type HealthCheck struct {
	guard  *dataset.DiskGuard
	logger *zap.Logger
}

// NewHealthCheck creates a new HealthCheck instance. The guard may be nil.
func NewHealthCheck(guard *dataset.DiskGuard, logger *zap.Logger) *HealthCheck {
	return &HealthCheck{guard: guard, logger: logger}
}

// LivenessResponse represents the response for the liveness check.
type LivenessResponse struct {
	Status string `json:"status"`
}

// ReadinessResponse represents the response for the readiness check.
type ReadinessResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
	Error  string            `json:"error,omitempty"`
}

// LivenessHandler handles GET /health requests.
func (hc *HealthCheck) LivenessHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(LivenessResponse{Status: "healthy"})
}

// ReadinessHandler handles GET /ready requests.
func (hc *HealthCheck) ReadinessHandler(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{}
	ready := true
	var firstErr string

	// The embedded spectral tables must parse; without them no conditions
	// can be synthesized.
	if _, _, err := ambient.Sea(0).Spectrum(); err != nil {
		checks["spectral_tables"] = "unhealthy"
		ready = false
		firstErr = err.Error()
		hc.logger.Error("Spectral tables failed to load", zap.Error(err))
	} else {
		checks["spectral_tables"] = "healthy"
	}

	if hc.guard != nil {
		if err := hc.guard.CheckBeforeRun(0); err != nil {
			checks["dataset_disk"] = "unhealthy"
			ready = false
			if firstErr == "" {
				firstErr = err.Error()
			}
		} else {
			checks["dataset_disk"] = "healthy"
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if !ready {
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(ReadinessResponse{Status: "not_ready", Checks: checks, Error: firstErr})
		return
	}
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(ReadinessResponse{Status: "ready", Checks: checks})
}
