package errors

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler(t *testing.T) *ErrorHandler {
	t.Helper()
	return NewErrorHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), false)
}

func TestErrorToProblem(t *testing.T) {
	h := newTestHandler(t)
	r := httptest.NewRequest(http.MethodGet, "/api/test", nil)

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
	}{
		{
			name:       "context deadline",
			err:        context.DeadlineExceeded,
			wantStatus: http.StatusGatewayTimeout,
			wantType:   TypeTimeout,
		},
		{
			name:       "context cancelled",
			err:        context.Canceled,
			wantStatus: http.StatusGatewayTimeout,
			wantType:   TypeTimeout,
		},
		{
			name:       "unmapped analysis variable",
			err:        errors.New("analysis variable 1 is not mapped"),
			wantStatus: http.StatusUnprocessableEntity,
			wantType:   TypeEstimateMapping,
		},
		{
			name:       "unsupported format",
			err:        errors.New("unsupported dataset format: txt"),
			wantStatus: http.StatusBadRequest,
			wantType:   TypeDatasetFormat,
		},
		{
			name:       "not found",
			err:        errors.New("dataset not found"),
			wantStatus: http.StatusNotFound,
			wantType:   TypeNotFound,
		},
		{
			name:       "run still executing",
			err:        errors.New("run is still executing"),
			wantStatus: http.StatusConflict,
			wantType:   TypeRunRunning,
		},
		{
			name:       "run cancelled",
			err:        errors.New("run cancelled"),
			wantStatus: http.StatusConflict,
			wantType:   TypeRunCancelled,
		},
		{
			name:       "rate limit",
			err:        errors.New("rate limit exceeded"),
			wantStatus: http.StatusTooManyRequests,
			wantType:   TypeRateLimit,
		},
		{
			name:       "payload too large",
			err:        errors.New("payload too large"),
			wantStatus: http.StatusRequestEntityTooLarge,
			wantType:   TypePayloadTooLarge,
		},
		{
			name:       "generic error",
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantType:   TypeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			problem := h.ErrorToProblem(tt.err, r)
			assert.Equal(t, tt.wantStatus, problem.Status)
			assert.Equal(t, tt.wantType, problem.Type)
			assert.Equal(t, "/api/test", problem.Instance)
		})
	}
}

func TestErrorToProblemAPIError(t *testing.T) {
	h := newTestHandler(t)
	r := httptest.NewRequest(http.MethodGet, "/api/datasets/x", nil)

	tests := []struct {
		name     string
		err      *APIError
		wantType string
	}{
		{"dataset not found", DatasetNotFoundError("x"), TypeDatasetNotFound},
		{"run not found", RunNotFoundError("r1"), TypeRunNotFound},
		{"run running", ErrRunRunning, TypeRunRunning},
		{"estimate mapping", ErrEstimateMapping, TypeEstimateMapping},
		{"validation", NewValidationError("bad input"), TypeValidation},
		{"rate limit", ErrRateLimitExceeded, TypeRateLimit},
		{"websocket", ErrWebSocketUpgrade, TypeWebSocketUpgrade},
		{"internal", ErrInternalServer, TypeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			problem := h.ErrorToProblem(tt.err, r)
			assert.Equal(t, tt.err.StatusCode, problem.Status)
			assert.Equal(t, tt.wantType, problem.Type)
			assert.Equal(t, tt.err.ErrorCode, problem.Extensions["error_code"])
		})
	}
}

func TestHandleError(t *testing.T) {
	h := newTestHandler(t)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/pipeline/runs/r1", nil)

	h.HandleError(w, r, RunNotFoundError("r1"))

	assert.Equal(t, http.StatusNotFound, w.Code)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decoded))
	assert.Equal(t, TypeRunNotFound, decoded["type"])
	assert.Contains(t, decoded, "trace_id")
}

func TestHandleErrorNil(t *testing.T) {
	h := newTestHandler(t)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)

	h.HandleError(w, r, nil)

	// Nothing written for a nil error
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Body.String())
}

func TestHandlePanic(t *testing.T) {
	h := newTestHandler(t)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/pipeline/runs", nil)

	h.HandlePanic(w, r, "something broke")

	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decoded))
	assert.Equal(t, TypeInternal, decoded["type"])
}

func TestHandlePanicIncludesStack(t *testing.T) {
	h := NewErrorHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), true)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/pipeline/runs", nil)

	h.HandlePanic(w, r, "something broke")

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decoded))
	assert.Contains(t, decoded, "stack")
	assert.Equal(t, "something broke", decoded["panic"])
}

func TestNotFoundAndMethodNotAllowed(t *testing.T) {
	h := newTestHandler(t)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/nope", nil)
	h.NotFound(w, r)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	r = httptest.NewRequest(http.MethodDelete, "/api/health", nil)
	h.MethodNotAllowed(w, r)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decoded))
	assert.Contains(t, decoded["detail"], "DELETE")
}
