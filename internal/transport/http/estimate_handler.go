package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "surveyprep/internal/errors"
	"surveyprep/internal/estimator"
	"surveyprep/internal/middleware"
	"surveyprep/internal/services"
	v1 "surveyprep/pkg/contracts/api/v1"
)

// EstimateHandler handles estimation HTTP requests with RFC 7807 compliance
type EstimateHandler struct {
	service      EstimateServiceInterface
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
	validation   *middleware.ValidationMiddleware
}

// NewEstimateHandler creates a new estimate handler with RFC 7807 error handling
func NewEstimateHandler(service EstimateServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *EstimateHandler {
	return &EstimateHandler{
		service:      service,
		logger:       logger.With(slog.String("component", "estimate_handler")),
		errorHandler: errorHandler,
		validation:   middleware.NewValidationMiddleware(logger, errorHandler),
	}
}

// Routes returns the estimate routes with proper Chi patterns
func (h *EstimateHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Post("/", h.Estimate)
	r.Post("/export", h.Export)

	return r
}

// Estimate handles POST /api/estimates with RFC 7807 errors
func (h *EstimateHandler) Estimate(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())

	var req v1.EstimateRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}

	if err := h.validation.ValidateStruct(&req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "computing estimates",
		slog.String("request_id", reqID),
		slog.String("run_id", req.RunID),
		slog.String("dataset", req.Dataset),
		slog.String("weight", req.Mapping.Weight),
		slog.String("analysis_var_1", req.Mapping.AnalysisVar1),
		slog.String("analysis_var_2", req.Mapping.AnalysisVar2),
	)

	results, err := h.service.Estimate(r.Context(), req)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to compute estimates",
			slog.String("error", err.Error()),
			slog.String("request_id", reqID),
		)

		h.handleEstimateError(w, r, err, req.RunID, req.Dataset)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   results,
		"count":  len(results),
	})
}

// Export handles POST /api/estimates/export with RFC 7807 errors
func (h *EstimateHandler) Export(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())

	var req v1.ExportRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}

	if err := h.validation.ValidateStruct(&req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "exporting estimate artifacts",
		slog.String("request_id", reqID),
		slog.String("run_id", req.RunID),
		slog.Bool("charts", req.Charts),
	)

	artifacts, err := h.service.Export(r.Context(), req)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to export estimate artifacts",
			slog.String("error", err.Error()),
			slog.String("request_id", reqID),
			slog.String("run_id", req.RunID),
		)

		h.handleEstimateError(w, r, err, req.RunID, "")
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   artifacts,
	})
}

// handleEstimateError maps estimation errors to API errors
func (h *EstimateHandler) handleEstimateError(w http.ResponseWriter, r *http.Request, err error, runID, dataset string) {
	switch {
	case errors.Is(err, services.ErrNoEstimateSource):
		h.errorHandler.HandleError(w, r, apierrors.New(
			http.StatusBadRequest,
			"NO_ESTIMATE_SOURCE",
			"Exactly one of run_id and dataset must identify the source table",
		))

	case errors.Is(err, services.ErrRunNotFound):
		h.errorHandler.HandleError(w, r, apierrors.NewWithDetails(
			http.StatusNotFound,
			"RUN_NOT_FOUND",
			fmt.Sprintf("Run '%s' not found", runID),
			map[string]interface{}{
				"run_id": runID,
			},
		))

	case errors.Is(err, services.ErrRunNotComplete):
		h.errorHandler.HandleError(w, r, apierrors.NewWithDetails(
			http.StatusConflict,
			"RUN_NOT_COMPLETE",
			fmt.Sprintf("Run '%s' has not completed", runID),
			map[string]interface{}{
				"run_id": runID,
			},
		))

	case errors.Is(err, services.ErrDatasetNotFound):
		h.errorHandler.HandleError(w, r, apierrors.NewWithDetails(
			http.StatusNotFound,
			"DATASET_NOT_FOUND",
			fmt.Sprintf("Dataset '%s' not found", dataset),
			map[string]interface{}{
				"dataset": dataset,
			},
		))

	case errors.Is(err, estimator.ErrWeightNotMapped),
		errors.Is(err, estimator.ErrAnalysisVarNotMapped):
		h.errorHandler.HandleError(w, r, apierrors.NewWithDetails(
			http.StatusUnprocessableEntity,
			"MAPPING_INCOMPLETE",
			err.Error(),
			map[string]interface{}{
				"required": []string{"weight", "analysis_var_1"},
			},
		))

	default:
		h.errorHandler.HandleError(w, r, err)
	}
}
