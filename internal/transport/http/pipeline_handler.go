package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	apierrors "surveyprep/internal/errors"
	"surveyprep/internal/infrastructure"
	"surveyprep/internal/middleware"
	"surveyprep/internal/services"
	v1 "surveyprep/pkg/contracts/api/v1"
	"surveyprep/pkg/contracts/domain"
)

// PipelineHandler handles preparation run HTTP requests
type PipelineHandler struct {
	service PipelineServiceInterface
	logger  *slog.Logger
}

// NewPipelineHandler creates a new pipeline handler
func NewPipelineHandler(service PipelineServiceInterface, logger *slog.Logger) *PipelineHandler {
	if service == nil {
		panic("service cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PipelineHandler{
		service: service,
		logger:  logger.With(slog.String("handler", "pipeline")),
	}
}

// RunRequest is the payload for starting a preparation run
type RunRequest struct {
	v1.RunPipelineRequest
}

// Bind implements the render.Binder interface for request validation
func (rr *RunRequest) Bind(req *http.Request) error {
	if strings.TrimSpace(rr.Dataset) == "" {
		return errors.New("dataset is required")
	}
	if len(rr.Dataset) > 255 {
		return errors.New("dataset name is too long")
	}
	if rr.Config.Outlier.Threshold < 0 {
		return fmt.Errorf("outlier threshold must not be negative: %v", rr.Config.Outlier.Threshold)
	}
	return nil
}

// Routes returns a chi router for pipeline endpoints
func (h *PipelineHandler) Routes() chi.Router {
	r := chi.NewRouter()

	// Apply timeout middleware to all pipeline routes
	r.Use(middleware.Timeout(60*time.Second, h.logger))

	r.Post("/run", h.StartRun)
	r.Get("/runs", h.ListRuns)
	r.Get("/metrics", h.RunsMetrics)

	r.Route("/runs/{id}", func(r chi.Router) {
		r.Get("/", h.GetRun)
		r.Get("/log", h.GetRunLog)
		r.Get("/table", h.GetRunTable)
		r.Post("/cancel", h.CancelRun)
		r.Delete("/", h.DeleteRun)
	})

	return r
}

// StartRun handles POST /api/pipeline/run
func (h *PipelineHandler) StartRun(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := middleware.GetReqID(ctx)
	tracer := otel.Tracer("pipeline-handler")

	ctx, span := tracer.Start(ctx, "pipeline_handler.start_run",
		trace.WithAttributes(
			attribute.String("http.method", r.Method),
			attribute.String("http.route", "/api/pipeline/run"),
			attribute.String("request_id", reqID),
			attribute.String("component", "pipeline_handler"),
		),
	)
	defer span.End()

	h.logger.InfoContext(ctx, "run start request",
		slog.String("request_id", reqID),
		slog.String("trace_id", infrastructure.TraceIDFromContext(ctx)))

	data := &RunRequest{}
	if err := render.Bind(r, data); err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.String("error.type", "request_validation"))

		h.logger.ErrorContext(ctx, "failed to bind run request",
			slog.String("error", err.Error()),
			slog.String("request_id", reqID))

		problem := apierrors.NewProblemDetails(
			http.StatusBadRequest,
			"/errors/validation_failed",
			"validation_failed",
			err.Error(),
			r.URL.Path+"#"+reqID,
		).WithExtension("trace_id", infrastructure.TraceIDFromContext(ctx))

		render.Render(w, r, problem)
		return
	}

	span.SetAttributes(
		attribute.String("run.dataset", data.Dataset),
		attribute.Bool("run.imputation", data.Config.ImputationEnabled()),
		attribute.Bool("run.outlier", data.Config.OutlierEnabled()),
		attribute.Bool("run.rule", data.Config.RuleEnabled()),
	)

	startCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	summary, err := h.service.StartRun(startCtx, data.Dataset, data.Config)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "run start failed")

		h.logger.ErrorContext(ctx, "failed to start run",
			slog.String("dataset", data.Dataset),
			slog.String("error", err.Error()),
			slog.String("request_id", reqID))

		if errors.Is(err, services.ErrDatasetNotFound) {
			problem := apierrors.NewProblemDetails(
				http.StatusNotFound,
				"/errors/not_found",
				"not_found",
				fmt.Sprintf("Dataset '%s' not found", data.Dataset),
				r.URL.Path+"#"+reqID,
			).WithExtension("trace_id", infrastructure.TraceIDFromContext(ctx)).
				WithExtension("dataset", data.Dataset)

			render.Render(w, r, problem)
			return
		}

		if errors.Is(err, services.ErrUnsupportedFormat) || errors.Is(err, services.ErrInvalidDatasetName) {
			problem := apierrors.NewProblemDetails(
				http.StatusBadRequest,
				"/errors/validation_failed",
				"validation_failed",
				err.Error(),
				r.URL.Path+"#"+reqID,
			).WithExtension("trace_id", infrastructure.TraceIDFromContext(ctx)).
				WithExtension("dataset", data.Dataset)

			render.Render(w, r, problem)
			return
		}

		problem := apierrors.NewProblemDetails(
			http.StatusInternalServerError,
			"/errors/run_failed",
			"run_failed",
			"Failed to start preparation run: "+err.Error(),
			r.URL.Path+"#"+reqID,
		).WithExtension("trace_id", infrastructure.TraceIDFromContext(ctx))

		render.Render(w, r, problem)
		return
	}

	span.SetAttributes(attribute.String("run.id", summary.ID))

	h.logger.InfoContext(ctx, "run accepted",
		slog.String("run_id", summary.ID),
		slog.String("dataset", summary.Dataset),
		slog.String("request_id", reqID))

	// The run executes in the background; clients poll or subscribe via WebSocket.
	render.Status(r, http.StatusAccepted)
	render.JSON(w, r, map[string]interface{}{
		"run_id":   summary.ID,
		"dataset":  summary.Dataset,
		"status":   summary.Status,
		"message":  "Preparation run accepted",
		"poll_url": "/api/pipeline/runs/" + summary.ID,
	})
}

// GetRun handles GET /api/pipeline/runs/{id}
func (h *PipelineHandler) GetRun(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	runID := chi.URLParam(r, "id")
	reqID := middleware.GetReqID(ctx)
	tracer := otel.Tracer("pipeline-handler")

	ctx, span := tracer.Start(ctx, "pipeline_handler.get_run",
		trace.WithAttributes(
			attribute.String("http.method", r.Method),
			attribute.String("http.route", "/api/pipeline/runs/{id}"),
			attribute.String("run.id", runID),
			attribute.String("request_id", reqID),
		),
	)
	defer span.End()

	h.logger.DebugContext(ctx, "run status request",
		slog.String("run_id", runID),
		slog.String("request_id", reqID))

	statusCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	summary, err := h.service.GetRun(statusCtx, runID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "run retrieval failed")

		h.handleError(w, r, err, map[string]interface{}{
			"run_id": runID,
		})
		return
	}

	span.SetAttributes(
		attribute.String("run.status", string(summary.Status)),
		attribute.Int("run.steps_count", len(summary.Steps)),
	)

	render.JSON(w, r, summary)
}

// ListRuns handles GET /api/pipeline/runs
func (h *PipelineHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := middleware.GetReqID(ctx)
	tracer := otel.Tracer("pipeline-handler")

	ctx, span := tracer.Start(ctx, "pipeline_handler.list_runs",
		trace.WithAttributes(
			attribute.String("http.method", r.Method),
			attribute.String("http.route", "/api/pipeline/runs"),
			attribute.String("request_id", reqID),
		),
	)
	defer span.End()

	statusFilter := r.URL.Query().Get("status")

	h.logger.DebugContext(ctx, "listing runs",
		slog.String("status_filter", statusFilter),
		slog.String("request_id", reqID))

	if statusFilter != "" {
		validStatuses := map[string]domain.RunStatus{
			"pending":   domain.RunStatusPending,
			"running":   domain.RunStatusRunning,
			"completed": domain.RunStatusCompleted,
			"failed":    domain.RunStatusFailed,
			"cancelled": domain.RunStatusCancelled,
		}

		if _, ok := validStatuses[statusFilter]; !ok {
			problem := apierrors.NewProblemDetails(
				http.StatusBadRequest,
				"/errors/validation_failed",
				"validation_failed",
				fmt.Sprintf("Invalid status filter: %s", statusFilter),
				r.URL.Path+"#"+reqID,
			).WithExtension("trace_id", infrastructure.TraceIDFromContext(ctx)).
				WithExtension("valid_statuses", []string{"pending", "running", "completed", "failed", "cancelled"})

			render.Render(w, r, problem)
			return
		}

		span.SetAttributes(attribute.String("filter.status", statusFilter))
	}

	runs := h.service.ListRuns(ctx)

	if statusFilter != "" {
		filtered := runs[:0]
		for _, run := range runs {
			if string(run.Status) == statusFilter {
				filtered = append(filtered, run)
			}
		}
		runs = filtered
	}

	span.SetAttributes(attribute.Int("runs.count", len(runs)))

	render.JSON(w, r, map[string]interface{}{
		"runs":  runs,
		"count": len(runs),
	})
}

// GetRunLog handles GET /api/pipeline/runs/{id}/log
func (h *PipelineHandler) GetRunLog(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	runID := chi.URLParam(r, "id")
	reqID := middleware.GetReqID(ctx)
	tracer := otel.Tracer("pipeline-handler")

	ctx, span := tracer.Start(ctx, "pipeline_handler.get_run_log",
		trace.WithAttributes(
			attribute.String("http.method", r.Method),
			attribute.String("http.route", "/api/pipeline/runs/{id}/log"),
			attribute.String("run.id", runID),
			attribute.String("request_id", reqID),
		),
	)
	defer span.End()

	h.logger.DebugContext(ctx, "run log request",
		slog.String("run_id", runID),
		slog.String("request_id", reqID))

	logCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	lines, err := h.service.GetRunLog(logCtx, runID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "run log retrieval failed")

		h.handleError(w, r, err, map[string]interface{}{
			"run_id": runID,
		})
		return
	}

	span.SetAttributes(attribute.Int("log.lines", len(lines)))

	render.JSON(w, r, map[string]interface{}{
		"run_id": runID,
		"log":    lines,
		"count":  len(lines),
	})
}

// GetRunTable handles GET /api/pipeline/runs/{id}/table
func (h *PipelineHandler) GetRunTable(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	runID := chi.URLParam(r, "id")
	reqID := middleware.GetReqID(ctx)
	tracer := otel.Tracer("pipeline-handler")

	ctx, span := tracer.Start(ctx, "pipeline_handler.get_run_table",
		trace.WithAttributes(
			attribute.String("http.method", r.Method),
			attribute.String("http.route", "/api/pipeline/runs/{id}/table"),
			attribute.String("run.id", runID),
			attribute.String("request_id", reqID),
		),
	)
	defer span.End()

	rowsStr := r.URL.Query().Get("rows")
	rows := services.DefaultPreviewRows
	if rowsStr != "" {
		parsed, err := strconv.Atoi(rowsStr)
		if err != nil || parsed < 1 || parsed > 500 {
			problem := apierrors.NewProblemDetails(
				http.StatusBadRequest,
				"/errors/validation_failed",
				"validation_failed",
				"Rows must be a number between 1 and 500",
				r.URL.Path+"#"+reqID,
			).WithExtension("trace_id", infrastructure.TraceIDFromContext(ctx))

			render.Render(w, r, problem)
			return
		}
		rows = parsed
	}

	tableCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	summary, state, err := h.service.RunTable(tableCtx, runID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "run table retrieval failed")

		h.handleError(w, r, err, map[string]interface{}{
			"run_id": runID,
		})
		return
	}

	t := state.Table()
	columns := t.Columns()
	shown := t.Len()
	if shown > rows {
		shown = rows
	}

	preview := make([]map[string]string, shown)
	for i := 0; i < shown; i++ {
		row := make(map[string]string, len(columns))
		for _, col := range columns {
			value, _ := t.Cell(i, col)
			row[col] = value
		}
		preview[i] = row
	}

	span.SetAttributes(
		attribute.Int("table.rows", t.Len()),
		attribute.Int("table.shown", shown),
	)

	render.JSON(w, r, map[string]interface{}{
		"run_id":    runID,
		"dataset":   summary.Dataset,
		"columns":   columns,
		"rows":      preview,
		"row_count": t.Len(),
		"truncated": t.Len() > shown,
	})
}

// CancelRun handles POST /api/pipeline/runs/{id}/cancel
func (h *PipelineHandler) CancelRun(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	runID := chi.URLParam(r, "id")
	reqID := middleware.GetReqID(ctx)
	tracer := otel.Tracer("pipeline-handler")

	ctx, span := tracer.Start(ctx, "pipeline_handler.cancel_run",
		trace.WithAttributes(
			attribute.String("http.method", r.Method),
			attribute.String("http.route", "/api/pipeline/runs/{id}/cancel"),
			attribute.String("run.id", runID),
			attribute.String("request_id", reqID),
		),
	)
	defer span.End()

	h.logger.InfoContext(ctx, "run cancel request",
		slog.String("run_id", runID),
		slog.String("request_id", reqID),
		slog.String("trace_id", infrastructure.TraceIDFromContext(ctx)))

	cancelCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	cancelStart := time.Now()
	err := h.service.CancelRun(cancelCtx, runID)
	cancelDuration := time.Since(cancelStart)

	span.SetAttributes(
		attribute.Float64("cancellation.duration_ms", float64(cancelDuration.Milliseconds())),
	)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "run cancellation failed")

		h.handleError(w, r, err, map[string]interface{}{
			"run_id": runID,
		})
		return
	}

	h.logger.InfoContext(ctx, "run cancellation requested",
		slog.String("run_id", runID),
		slog.String("request_id", reqID))

	render.JSON(w, r, map[string]string{
		"message": "Run cancellation requested",
	})
}

// DeleteRun handles DELETE /api/pipeline/runs/{id}
func (h *PipelineHandler) DeleteRun(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	runID := chi.URLParam(r, "id")
	reqID := middleware.GetReqID(ctx)
	tracer := otel.Tracer("pipeline-handler")

	ctx, span := tracer.Start(ctx, "pipeline_handler.delete_run",
		trace.WithAttributes(
			attribute.String("http.method", r.Method),
			attribute.String("http.route", "/api/pipeline/runs/{id}"),
			attribute.String("run.id", runID),
			attribute.String("request_id", reqID),
		),
	)
	defer span.End()

	h.logger.InfoContext(ctx, "run delete request",
		slog.String("run_id", runID),
		slog.String("request_id", reqID))

	deleteCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := h.service.DeleteRun(deleteCtx, runID); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "run deletion failed")

		h.handleError(w, r, err, map[string]interface{}{
			"run_id": runID,
		})
		return
	}

	h.logger.InfoContext(ctx, "run deleted",
		slog.String("run_id", runID),
		slog.String("request_id", reqID))

	w.WriteHeader(http.StatusNoContent)
}

// RunsMetrics handles GET /api/pipeline/metrics
func (h *PipelineHandler) RunsMetrics(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := middleware.GetReqID(ctx)
	tracer := otel.Tracer("pipeline-handler")

	ctx, span := tracer.Start(ctx, "pipeline_handler.runs_metrics",
		trace.WithAttributes(
			attribute.String("http.method", r.Method),
			attribute.String("http.route", "/api/pipeline/metrics"),
			attribute.String("request_id", reqID),
		),
	)
	defer span.End()

	runs := h.service.ListRuns(ctx)
	summary := calculateRunsSummary(runs)

	span.SetAttributes(attribute.Int("runs.count", len(runs)))

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   summary,
	})
}

// handleError centralizes error handling for the handler
func (h *PipelineHandler) handleError(w http.ResponseWriter, r *http.Request, err error, extensions map[string]interface{}) {
	ctx := r.Context()
	reqID := middleware.GetReqID(ctx)
	traceID := infrastructure.TraceIDFromContext(ctx)

	h.logger.ErrorContext(ctx, "request failed",
		slog.String("error", err.Error()),
		slog.String("request_id", reqID),
		slog.String("trace_id", traceID),
		slog.String("path", r.URL.Path),
		slog.String("method", r.Method))

	var problem *apierrors.ProblemDetails

	switch {
	case errors.Is(err, services.ErrRunNotFound):
		problem = apierrors.NewProblemDetails(
			http.StatusNotFound,
			"/errors/not_found",
			"not_found",
			"Run not found",
			r.URL.Path+"#"+reqID,
		)

	case errors.Is(err, services.ErrRunNotComplete):
		problem = apierrors.NewProblemDetails(
			http.StatusConflict,
			"/errors/invalid_state",
			"invalid_state",
			"Run has not completed",
			r.URL.Path+"#"+reqID,
		)

	case errors.Is(err, services.ErrRunNotRunning):
		problem = apierrors.NewProblemDetails(
			http.StatusConflict,
			"/errors/invalid_state",
			"invalid_state",
			"Run is not running and cannot be cancelled",
			r.URL.Path+"#"+reqID,
		)

	case errors.Is(err, context.DeadlineExceeded):
		problem = apierrors.NewProblemDetails(
			http.StatusGatewayTimeout,
			"/errors/timeout",
			"Request Timeout",
			"The request timed out while processing",
			r.URL.Path+"#"+reqID,
		)

	case errors.Is(err, context.Canceled):
		problem = apierrors.NewProblemDetails(
			http.StatusRequestTimeout,
			"/errors/request_canceled",
			"Request Canceled",
			"The request was canceled",
			r.URL.Path+"#"+reqID,
		)

	default:
		problem = apierrors.NewProblemDetails(
			http.StatusInternalServerError,
			"/errors/internal_error",
			"Internal Server Error",
			"An unexpected error occurred",
			r.URL.Path+"#"+reqID,
		)
	}

	problem.WithExtension("trace_id", traceID).
		WithExtension("timestamp", time.Now().UTC()).
		WithExtension("request_id", reqID)

	if extensions != nil {
		for k, v := range extensions {
			problem.WithExtension(k, v)
		}
	}

	render.Render(w, r, problem)
}

// calculateRunsSummary aggregates run history into dashboard counters
func calculateRunsSummary(runs []domain.RunSummary) map[string]interface{} {
	byStatus := map[string]int{}
	totalRowsIn := 0
	totalRowsOut := 0
	totalOutliers := 0
	totalImputed := 0
	completed := 0
	var totalDuration time.Duration

	for _, run := range runs {
		byStatus[string(run.Status)]++
		totalRowsIn += run.RowsIn
		totalRowsOut += run.RowsOut
		totalOutliers += run.Outliers
		totalImputed += run.Imputed

		if run.Status == domain.RunStatusCompleted && run.StartedAt != nil && run.CompletedAt != nil {
			completed++
			totalDuration += run.CompletedAt.Sub(*run.StartedAt)
		}
	}

	summary := map[string]interface{}{
		"total_runs":       len(runs),
		"by_status":        byStatus,
		"rows_in_total":    totalRowsIn,
		"rows_out_total":   totalRowsOut,
		"outliers_flagged": totalOutliers,
		"cells_imputed":    totalImputed,
		"completed_runs":   completed,
	}

	if len(runs) > 0 {
		summary["success_rate"] = float64(byStatus[string(domain.RunStatusCompleted)]) / float64(len(runs))
	}
	if completed > 0 {
		summary["avg_duration_ms"] = float64(totalDuration.Milliseconds()) / float64(completed)
	}

	return summary
}
