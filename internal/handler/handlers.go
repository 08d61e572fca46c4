// Package handler provides the HTTP request handlers of the synthesis API.
package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/labsonar/synthesis/internal/ambient"
	"github.com/labsonar/synthesis/internal/dataset"
	apierrors "github.com/labsonar/synthesis/internal/errors"
	"github.com/labsonar/synthesis/internal/job"
	"github.com/labsonar/synthesis/internal/model"
)

// DefaultSpectrumSampleRate is the sample rate used for spectrum queries
// when none is given.
const DefaultSpectrumSampleRate = 48000.0

// Handlers contains all HTTP handlers and their dependencies.
type Handlers struct {
	jobs         *job.Service
	runs         *dataset.Writer
	errorHandler *apierrors.Handler
	logger       *zap.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(jobs *job.Service, runs *dataset.Writer, errorHandler *apierrors.Handler, logger *zap.Logger) *Handlers {
	return &Handlers{
		jobs:         jobs,
		runs:         runs,
		errorHandler: errorHandler,
		logger:       logger,
	}
}

// SubmitJob handles POST /v1/jobs requests.
func (h *Handlers) SubmitJob(w http.ResponseWriter, r *http.Request) {
	requestID := r.Header.Get("X-Request-ID")

	var req model.JobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.errorHandler.WriteValidationError(w, fmt.Sprintf("invalid request body: %v", err), requestID)
		return
	}

	j, err := h.jobs.Submit(r.Context(), &req)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.writeJSONResponse(w, http.StatusAccepted, j)
}

// GetJob handles GET /v1/jobs/{job_id} requests.
func (h *Handlers) GetJob(w http.ResponseWriter, r *http.Request) {
	jobID := mux.Vars(r)["job_id"]

	j, err := h.jobs.Get(jobID)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.writeJSONResponse(w, http.StatusOK, j)
}

// ListJobs handles GET /v1/jobs requests.
func (h *Handlers) ListJobs(w http.ResponseWriter, r *http.Request) {
	jobs := h.jobs.List()
	h.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"jobs":  jobs,
		"count": len(jobs),
	})
}

// ListRuns handles GET /v1/runs requests.
func (h *Handlers) ListRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := h.runs.List()
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.InternalError("failed to list runs", err))
		return
	}
	h.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"runs":  runs,
		"count": len(runs),
	})
}

// GetRun handles GET /v1/runs/{run_id} requests.
func (h *Handlers) GetRun(w http.ResponseWriter, r *http.Request) {
	runID := mux.Vars(r)["run_id"]

	m, err := h.runs.Load(runID)
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.RunNotFound(runID))
		return
	}
	h.writeJSONResponse(w, http.StatusOK, m)
}

// conditionsResponse enumerates the supported ambient conditions.
type conditionsResponse struct {
	SeaStates []int    `json:"sea_states"`
	Rain      []string `json:"rain"`
	Shipping  []string `json:"shipping"`
}

// ListConditions handles GET /v1/conditions requests.
func (h *Handlers) ListConditions(w http.ResponseWriter, r *http.Request) {
	resp := conditionsResponse{}
	for s := 0; s < ambient.SeaStates; s++ {
		resp.SeaStates = append(resp.SeaStates, s)
	}
	for _, rain := range []ambient.Rain{
		ambient.RainNone, ambient.RainLight, ambient.RainModerate,
		ambient.RainHeavy, ambient.RainVeryHeavy,
	} {
		resp.Rain = append(resp.Rain, rain.Name())
	}
	resp.Shipping = append(resp.Shipping, ambient.ShippingNone.Name())
	for level := 1; level <= 7; level++ {
		resp.Shipping = append(resp.Shipping, ambient.Shipping(level).Name())
	}
	h.writeJSONResponse(w, http.StatusOK, resp)
}

// spectrumResponse is the combined ambient spectrum for a set of conditions.
type spectrumResponse struct {
	SeaState    int       `json:"sea_state"`
	Rain        string    `json:"rain"`
	Shipping    string    `json:"shipping"`
	SampleRate  float64   `json:"sample_rate"`
	Frequencies []float64 `json:"frequencies_hz"`
	Levels      []float64 `json:"levels_db"`
}

// GetSpectrum handles GET /v1/spectrum requests. Conditions come from query
// parameters; omitted rain and shipping default to none.
func (h *Handlers) GetSpectrum(w http.ResponseWriter, r *http.Request) {
	requestID := r.Header.Get("X-Request-ID")
	q := r.URL.Query()

	seaState := 0
	if v := q.Get("sea_state"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			h.errorHandler.WriteValidationError(w, fmt.Sprintf("invalid sea_state %q", v), requestID)
			return
		}
		seaState = parsed
	}
	sea, err := ambient.ParseSea(seaState)
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.UnknownCondition("sea_state", strconv.Itoa(seaState)))
		return
	}

	rain := ambient.RainNone
	if v := q.Get("rain"); v != "" {
		if rain, err = ambient.ParseRain(v); err != nil {
			h.errorHandler.HandleError(w, r, apierrors.UnknownCondition("rain", v))
			return
		}
	}

	shipping := ambient.ShippingNone
	if v := q.Get("shipping"); v != "" {
		if shipping, err = ambient.ParseShipping(v); err != nil {
			h.errorHandler.HandleError(w, r, apierrors.UnknownCondition("shipping", v))
			return
		}
	}

	sampleRate := DefaultSpectrumSampleRate
	if v := q.Get("sample_rate"); v != "" {
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil || parsed <= 0 {
			h.errorHandler.WriteValidationError(w, fmt.Sprintf("invalid sample_rate %q", v), requestID)
			return
		}
		sampleRate = parsed
	}

	cond := ambient.Conditions{Sea: sea, Rain: rain, Shipping: shipping}
	freqs, levels, err := cond.Spectrum(sampleRate)
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.InternalError("failed to compute spectrum", err))
		return
	}

	h.writeJSONResponse(w, http.StatusOK, spectrumResponse{
		SeaState:    int(sea),
		Rain:        rain.Name(),
		Shipping:    shipping.Name(),
		SampleRate:  sampleRate,
		Frequencies: freqs,
		Levels:      levels,
	})
}

// writeJSONResponse writes a JSON response with the given status code.
func (h *Handlers) writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to encode response", zap.Error(err))
	}
}
