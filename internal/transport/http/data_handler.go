package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "surveyprep/internal/errors"
	"surveyprep/internal/middleware"
	"surveyprep/internal/services"
)

// maxUploadBytes bounds dataset uploads; survey extracts are small files.
const maxUploadBytes = 64 << 20

// DataHandler handles dataset HTTP requests with RFC 7807 compliance
type DataHandler struct {
	service      DataServiceInterface
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewDataHandler creates a new dataset handler with RFC 7807 error handling
func NewDataHandler(service DataServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *DataHandler {
	return &DataHandler{
		service:      service,
		logger:       logger.With(slog.String("component", "data_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the dataset routes with proper Chi patterns
func (h *DataHandler) Routes() chi.Router {
	r := chi.NewRouter()

	// Use render for consistent JSON responses
	r.Use(render.SetContentType(render.ContentTypeJSON))

	// Collection routes
	r.Get("/", h.ListDatasets)
	r.Post("/", h.UploadDataset)

	// Per-dataset routes
	r.Route("/{name}", func(r chi.Router) {
		r.Use(h.DatasetCtx) // Validate dataset name
		r.Get("/", h.GetPreview)
		r.Delete("/", h.DeleteDataset)
	})

	return r
}

// DatasetCtx middleware validates the dataset name parameter
func (h *DataHandler) DatasetCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")
		if name == "" {
			h.errorHandler.HandleError(w, r, apierrors.ErrValidation("name", "Dataset name is required"))
			return
		}

		if len(name) > 255 {
			h.errorHandler.HandleError(w, r, apierrors.ErrValidation("name", "Dataset name is too long"))
			return
		}

		next.ServeHTTP(w, r)
	})
}

// ListDatasets handles GET /api/datasets with RFC 7807 errors
func (h *DataHandler) ListDatasets(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())

	h.logger.InfoContext(r.Context(), "listing datasets",
		slog.String("request_id", reqID),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
	)

	datasets, err := h.service.ListDatasets(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to list datasets",
			slog.String("error", err.Error()),
			slog.String("request_id", reqID),
		)

		h.errorHandler.HandleError(w, r, err)
		return
	}

	// Success response
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   datasets,
		"count":  len(datasets),
	})
}

// GetPreview handles GET /api/datasets/{name} with RFC 7807 errors
func (h *DataHandler) GetPreview(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())
	name := chi.URLParam(r, "name")

	// Parse rows limit
	rowsStr := r.URL.Query().Get("rows")
	rows := services.DefaultPreviewRows
	if rowsStr != "" {
		parsed, err := strconv.Atoi(rowsStr)
		if err != nil || parsed < 1 || parsed > 500 {
			h.errorHandler.HandleError(w, r, apierrors.ErrValidation("rows", "Rows must be a number between 1 and 500"))
			return
		}
		rows = parsed
	}

	h.logger.InfoContext(r.Context(), "fetching dataset preview",
		slog.String("request_id", reqID),
		slog.String("dataset", name),
		slog.Int("rows", rows),
	)

	preview, err := h.service.GetPreview(r.Context(), name, rows)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to get dataset preview",
			slog.String("error", err.Error()),
			slog.String("request_id", reqID),
			slog.String("dataset", name),
		)

		if errors.Is(err, services.ErrDatasetNotFound) {
			h.errorHandler.HandleError(w, r, apierrors.NewWithDetails(
				http.StatusNotFound,
				"DATASET_NOT_FOUND",
				fmt.Sprintf("Dataset '%s' not found", name),
				map[string]interface{}{
					"dataset": name,
				},
			))
			return
		}

		if errors.Is(err, services.ErrUnsupportedFormat) {
			h.errorHandler.HandleError(w, r, apierrors.NewWithDetails(
				http.StatusBadRequest,
				"UNSUPPORTED_FORMAT",
				fmt.Sprintf("Dataset '%s' has an unsupported format", name),
				map[string]interface{}{
					"dataset": name,
				},
			))
			return
		}

		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status":  "success",
		"data":    preview,
		"dataset": name,
	})
}

// UploadDataset handles POST /api/datasets with RFC 7807 errors
func (h *DataHandler) UploadDataset(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.NewWithDetails(
			http.StatusBadRequest,
			"INVALID_UPLOAD",
			"Request must be multipart/form-data with a file part",
			map[string]interface{}{
				"error": err.Error(),
			},
		))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("file", "A file part is required"))
		return
	}
	defer file.Close()

	// An explicit name overrides the uploaded filename
	name := r.FormValue("name")
	if name == "" {
		name = header.Filename
	}

	h.logger.InfoContext(r.Context(), "uploading dataset",
		slog.String("request_id", reqID),
		slog.String("dataset", name),
		slog.Int64("size", header.Size),
	)

	info, err := h.service.SaveDataset(r.Context(), name, file)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to save dataset",
			slog.String("error", err.Error()),
			slog.String("request_id", reqID),
			slog.String("dataset", name),
		)

		if errors.Is(err, services.ErrInvalidDatasetName) {
			h.errorHandler.HandleError(w, r, apierrors.ErrValidation("name", fmt.Sprintf("Invalid dataset name: %s", name)))
			return
		}

		if errors.Is(err, services.ErrUnsupportedFormat) {
			h.errorHandler.HandleError(w, r, apierrors.NewWithDetails(
				http.StatusBadRequest,
				"UNSUPPORTED_FORMAT",
				"Datasets must be .csv or .xlsx files",
				map[string]interface{}{
					"dataset": name,
				},
			))
			return
		}

		if errors.Is(err, services.ErrEmptyUpload) {
			h.errorHandler.HandleError(w, r, apierrors.ErrValidation("file", "Uploaded file is empty"))
			return
		}

		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   info,
	})
}

// DeleteDataset handles DELETE /api/datasets/{name} with RFC 7807 errors
func (h *DataHandler) DeleteDataset(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())
	name := chi.URLParam(r, "name")

	h.logger.InfoContext(r.Context(), "deleting dataset",
		slog.String("request_id", reqID),
		slog.String("dataset", name),
	)

	if err := h.service.DeleteDataset(r.Context(), name); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to delete dataset",
			slog.String("error", err.Error()),
			slog.String("request_id", reqID),
			slog.String("dataset", name),
		)

		if errors.Is(err, services.ErrDatasetNotFound) {
			h.errorHandler.HandleError(w, r, apierrors.NewWithDetails(
				http.StatusNotFound,
				"DATASET_NOT_FOUND",
				fmt.Sprintf("Dataset '%s' not found", name),
				map[string]interface{}{
					"dataset": name,
				},
			))
			return
		}

		if errors.Is(err, services.ErrInvalidDatasetName) {
			h.errorHandler.HandleError(w, r, apierrors.ErrValidation("name", fmt.Sprintf("Invalid dataset name: %s", name)))
			return
		}

		h.errorHandler.HandleError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
