package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"surveyprep/internal/config"
	apierrors "surveyprep/internal/errors"
	"surveyprep/internal/files"
	"surveyprep/internal/middleware"
)

// ResultsHandler serves run artifacts: exported tables, estimate
// summaries, chart pages, and log files
type ResultsHandler struct {
	paths        *config.Paths
	manager      *files.Manager
	discovery    *files.Discovery
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewResultsHandler creates a new results handler
func NewResultsHandler(paths *config.Paths, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *ResultsHandler {
	return &ResultsHandler{
		paths:        paths,
		manager:      files.NewManager(paths),
		discovery:    files.NewDiscovery(paths.BaseDir),
		logger:       logger.With(slog.String("component", "results_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the results routes with proper Chi patterns
func (h *ResultsHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ListResults)

	// Download route
	r.Route("/{type}/{filename}", func(r chi.Router) {
		r.Use(h.DownloadCtx) // Validate download parameters
		r.Get("/", h.DownloadFile)
	})

	return r
}

// resultDir maps a result type to its directory
func (h *ResultsHandler) resultDir(fileType string) (string, bool) {
	switch fileType {
	case "exports":
		return h.paths.ExportsDir, true
	case "charts":
		return h.paths.ChartsDir, true
	case "logs":
		return h.paths.LogsDir, true
	default:
		return "", false
	}
}

// DownloadCtx middleware validates download parameters
func (h *ResultsHandler) DownloadCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fileType := chi.URLParam(r, "type")
		filename := chi.URLParam(r, "filename")

		if _, ok := h.resultDir(fileType); !ok {
			h.errorHandler.HandleError(w, r, apierrors.ErrValidation("type", fmt.Sprintf("Invalid result type: %s", fileType)))
			return
		}

		if filename == "" {
			h.errorHandler.HandleError(w, r, apierrors.ErrValidation("filename", "Filename is required"))
			return
		}

		// Reject traversal attempts before touching the filesystem
		if strings.Contains(filename, "..") || strings.ContainsAny(filename, "/\\") {
			h.errorHandler.HandleError(w, r, apierrors.ErrValidation("filename", "Invalid filename"))
			return
		}

		next.ServeHTTP(w, r)
	})
}

// ListResults handles GET /api/results with RFC 7807 errors
func (h *ResultsHandler) ListResults(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())

	h.logger.InfoContext(r.Context(), "listing result artifacts",
		slog.String("request_id", reqID),
	)

	groups := map[string][]map[string]interface{}{}
	count := 0

	for _, group := range []struct {
		name    string
		dir     string
		pattern string
	}{
		{"exports", h.paths.ExportsDir, "*.csv"},
		{"charts", h.paths.ChartsDir, "*.html"},
		{"logs", h.paths.LogsDir, "*.txt"},
	} {
		found, err := h.discovery.FindFilesByPattern(group.dir, group.pattern)
		if err != nil {
			h.logger.ErrorContext(r.Context(), "failed to scan result directory",
				slog.String("error", err.Error()),
				slog.String("dir", group.dir),
				slog.String("request_id", reqID),
			)

			h.errorHandler.HandleError(w, r, apierrors.FileSystemError("scan results", err))
			return
		}

		// Newest first
		sort.Slice(found, func(i, j int) bool {
			return found[i].ModTime.After(found[j].ModTime)
		})

		entries := make([]map[string]interface{}, len(found))
		for i, f := range found {
			entries[i] = map[string]interface{}{
				"name":     f.Name,
				"size":     f.Size,
				"modified": f.ModTime,
				"url":      fmt.Sprintf("/api/results/%s/%s", group.name, f.Name),
			}
		}
		groups[group.name] = entries
		count += len(entries)
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   groups,
		"count":  count,
	})
}

// DownloadFile handles GET /api/results/{type}/{filename} with RFC 7807 errors
func (h *ResultsHandler) DownloadFile(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())
	fileType := chi.URLParam(r, "type")
	filename := chi.URLParam(r, "filename")

	h.logger.InfoContext(r.Context(), "downloading result artifact",
		slog.String("request_id", reqID),
		slog.String("file_type", fileType),
		slog.String("filename", filename),
	)

	dir, _ := h.resultDir(fileType)
	path := filepath.Join(dir, filename)

	if !h.manager.FileExists(path) {
		h.errorHandler.HandleError(w, r, apierrors.NewWithDetails(
			http.StatusNotFound,
			"FILE_NOT_FOUND",
			fmt.Sprintf("Result file '%s' not found", filename),
			map[string]interface{}{
				"type":     fileType,
				"filename": filename,
			},
		))
		return
	}

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	http.ServeFile(w, r, path)
}
