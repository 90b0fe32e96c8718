package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/inferstack/mlserve/internal/config"
	"github.com/inferstack/mlserve/internal/inference"
	"github.com/inferstack/mlserve/internal/monitor"
	"github.com/inferstack/mlserve/internal/observability"
	"github.com/inferstack/mlserve/internal/registry"
	"github.com/inferstack/mlserve/pkg/constants"
	"github.com/inferstack/mlserve/pkg/errors"
)

// Handlers holds the HTTP handler set and its collaborators.
type Handlers struct {
	config    *config.Config
	state     *inference.ModelState
	predictor *inference.Predictor
	buffer    *monitor.PredictionBuffer
	pointers  *registry.PointerManager
	logger    *logrus.Logger
	startTime time.Time
}

// NewHandlers creates the handler set.
func NewHandlers(cfg *config.Config, deps Dependencies, logger *logrus.Logger) *Handlers {
	return &Handlers{
		config:    cfg,
		state:     deps.State,
		predictor: deps.Predictor,
		buffer:    deps.Buffer,
		pointers:  deps.Pointers,
		logger:    logger,
		startTime: time.Now(),
	}
}

// PredictRequest is a single-instance prediction request.
type PredictRequest struct {
	Features map[string]float64 `json:"features"`
}

// PredictBatchRequest scores several instances in one call.
type PredictBatchRequest struct {
	Instances []map[string]float64 `json:"instances"`
}

type predictBatchResponse struct {
	Predictions []*inference.PredictionResult `json:"predictions"`
	Count       int                           `json:"count"`
}

// Predict scores one feature row against the active model.
func (h *Handlers) Predict(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req PredictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, errors.NewValidationError(errors.CodeInvalidInput, "invalid JSON body"))
		return
	}
	if err := h.validateInstance(req.Features); err != nil {
		h.writeError(w, r, err)
		return
	}

	result, err := h.predictor.Predict(req.Features)
	if err != nil {
		observability.PredictionRequestsTotal.WithLabelValues("predict", h.state.ActiveVersion(), "error").Inc()
		h.writeError(w, r, err)
		return
	}

	observability.PredictionRequestsTotal.WithLabelValues("predict", result.ModelVersion, "success").Inc()
	observability.PredictionLatencySeconds.WithLabelValues("predict", result.ModelVersion).Observe(time.Since(start).Seconds())
	h.writeJSON(w, http.StatusOK, result)
}

// PredictBatch scores a batch of feature rows in one runtime call.
func (h *Handlers) PredictBatch(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req PredictBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, errors.NewValidationError(errors.CodeInvalidInput, "invalid JSON body"))
		return
	}
	if len(req.Instances) > h.config.API.MaxBatchSize {
		h.writeError(w, r, errors.NewValidationError(errors.CodeBatchTooLarge,
			fmt.Sprintf("batch size %d exceeds limit %d", len(req.Instances), h.config.API.MaxBatchSize)))
		return
	}
	for _, instance := range req.Instances {
		if err := h.validateInstance(instance); err != nil {
			h.writeError(w, r, err)
			return
		}
	}

	results, err := h.predictor.PredictBatch(req.Instances)
	if err != nil {
		observability.PredictionRequestsTotal.WithLabelValues("predict_batch", h.state.ActiveVersion(), "error").Inc()
		h.writeError(w, r, err)
		return
	}

	version := ""
	if len(results) > 0 {
		version = results[0].ModelVersion
	}
	observability.PredictionRequestsTotal.WithLabelValues("predict_batch", version, "success").Inc()
	observability.PredictionLatencySeconds.WithLabelValues("predict_batch", version).Observe(time.Since(start).Seconds())
	h.writeJSON(w, http.StatusOK, predictBatchResponse{Predictions: results, Count: len(results)})
}

// validateInstance enforces the transport-level shape limits before the
// request reaches the core.
func (h *Handlers) validateInstance(features map[string]float64) error {
	if len(features) == 0 {
		return errors.NewValidationError(errors.CodeInvalidInput, "features must not be empty")
	}
	if len(features) > h.config.API.MaxFeatures {
		return errors.NewValidationError(errors.CodeTooManyFeatures,
			fmt.Sprintf("instance has %d features, limit is %d", len(features), h.config.API.MaxFeatures))
	}
	for name := range features {
		if len(name) > h.config.API.MaxFeatureNameLen {
			return errors.NewValidationError(errors.CodeFeatureNameTooLong,
				fmt.Sprintf("feature name exceeds %d characters", h.config.API.MaxFeatureNameLen))
		}
	}
	return nil
}

// ModelInfo reports the active model's schema, metrics, and promotion
// provenance.
func (h *Handlers) ModelInfo(w http.ResponseWriter, r *http.Request) {
	active := h.state.Active()
	if active == nil {
		h.writeError(w, r, errors.NewNotLoadedError("no model is currently loaded"))
		return
	}

	info := map[string]any{
		"model_version": active.Version,
		"loaded_at":     active.LoadedAt,
		"schema":        active.Schema,
	}
	if active.Metadata != nil {
		info["model_type"] = active.Metadata.ModelType
		info["metrics"] = active.Metadata.Metrics
		info["trained_at"] = active.Metadata.TrainedAt
	}
	if active.Pointer != nil {
		info["promotion"] = map[string]any{
			"promoted_at":      active.Pointer.PromotedAt,
			"promoted_by":      active.Pointer.PromotedBy,
			"promotion_reason": active.Pointer.PromotionReason,
			"previous_version": active.Pointer.PreviousVersion,
			"environment":      active.Pointer.Environment,
		}
	}
	h.writeJSON(w, http.StatusOK, info)
}

// PromotionHistory returns archived pointer records, most recent first.
func (h *Handlers) PromotionHistory(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 100 {
			h.writeError(w, r, errors.NewValidationError(errors.CodeInvalidInput, "limit must be an integer between 1 and 100"))
			return
		}
		limit = parsed
	}

	history, err := h.pointers.History(r.Context(), limit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"environment": h.pointers.Environment(),
		"history":     history,
		"count":       len(history),
	})
}

// BufferStats reports prediction buffer occupancy.
func (h *Handlers) BufferStats(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.buffer.Statistics())
}

// Health is the liveness probe: the process is up.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]any{
		"status":         "healthy",
		"uptime_seconds": int(time.Since(h.startTime).Seconds()),
	})
}

// Ready is the readiness probe: serving requires a loaded model.
func (h *Handlers) Ready(w http.ResponseWriter, r *http.Request) {
	version := h.state.ActiveVersion()
	if version == "" {
		h.writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"reason": "no model loaded",
		})
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"status":        "ready",
		"model_version": version,
	})
}

// Version reports build information.
func (h *Handlers) Version(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, buildInfo())
}

// NotFound is the catch-all 404 handler.
func (h *Handlers) NotFound(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusNotFound, map[string]any{
		"error": map[string]any{
			"code":    "NOT_FOUND",
			"message": "endpoint not found",
			"path":    r.URL.Path,
		},
	})
}

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set(constants.HeaderContentType, constants.ContentTypeJSON)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.WithError(err).Error("Failed to encode response")
	}
}

func (h *Handlers) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := errors.HTTPStatusOf(err)
	code := errors.CodeOf(err)

	if status >= 500 {
		h.logger.WithError(err).WithFields(logrus.Fields{
			"path":       r.URL.Path,
			"request_id": getRequestID(r),
		}).Error("Request failed")
	} else {
		h.logger.WithError(err).WithFields(logrus.Fields{
			"path":       r.URL.Path,
			"request_id": getRequestID(r),
		}).Warn("Request rejected")
	}
	observability.PredictionErrorsTotal.WithLabelValues(r.URL.Path, code).Inc()

	body := map[string]any{
		"error": map[string]any{
			"code":    code,
			"message": err.Error(),
		},
	}
	h.writeJSON(w, status, body)
}

// Build information, injected at link time.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func buildInfo() map[string]string {
	return map[string]string{
		"version":    Version,
		"commit":     GitCommit,
		"build_date": BuildDate,
		"go_version": runtime.Version(),
		"platform":   runtime.GOOS + "/" + runtime.GOARCH,
	}
}
