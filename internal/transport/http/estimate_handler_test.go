package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apierrors "surveyprep/internal/errors"
	"surveyprep/internal/estimator"
	"surveyprep/internal/services"
	v1 "surveyprep/pkg/contracts/api/v1"
	"surveyprep/pkg/contracts/domain"
)

// MockEstimateService is a mock implementation of EstimateServiceInterface
type MockEstimateService struct {
	mock.Mock
}

func (m *MockEstimateService) Estimate(ctx context.Context, req v1.EstimateRequest) ([]domain.EstimateResult, error) {
	args := m.Called(req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.EstimateResult), args.Error(1)
}

func (m *MockEstimateService) Export(ctx context.Context, req v1.ExportRequest) (services.ExportArtifacts, error) {
	args := m.Called(req)
	return args.Get(0).(services.ExportArtifacts), args.Error(1)
}

func newEstimateRouter(service EstimateServiceInterface) chi.Router {
	logger := testHandlerLogger()
	handler := NewEstimateHandler(service, logger, apierrors.NewErrorHandler(logger, false))
	r := chi.NewRouter()
	r.Mount("/api/estimates", handler.Routes())
	return r
}

func postJSON(t *testing.T, router chi.Router, path string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()

	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestEstimateHandler_Estimate(t *testing.T) {
	mapping := domain.SchemaMapping{
		Weight:       "design_weight",
		AnalysisVar1: "income",
	}

	t.Run("estimates from completed run", func(t *testing.T) {
		runID := uuid.NewString()
		expected := v1.EstimateRequest{RunID: runID, Mapping: mapping}

		mockService := new(MockEstimateService)
		mockService.On("Estimate", expected).Return([]domain.EstimateResult{
			{
				Variable:   "income",
				Unweighted: domain.VariableStats{Count: 100, Mean: 52.5, MoE: 1.2, Total: 5250},
				Weighted:   domain.VariableStats{Count: 100, Mean: 54.1, MoE: 1.4, Total: 108200},
			},
		}, nil)

		rec := postJSON(t, newEstimateRouter(mockService), "/api/estimates", expected)

		require.Equal(t, http.StatusOK, rec.Code)

		resp := decodeJSONBody(t, rec)
		assert.Equal(t, "success", resp["status"])
		assert.Equal(t, float64(1), resp["count"])
		data, ok := resp["data"].([]interface{})
		require.True(t, ok)
		require.Len(t, data, 1)
		first, ok := data[0].(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, "income", first["name"])
		mockService.AssertExpectations(t)
	})

	t.Run("estimates raw dataset", func(t *testing.T) {
		expected := v1.EstimateRequest{Dataset: "survey.csv", Mapping: mapping}

		mockService := new(MockEstimateService)
		mockService.On("Estimate", expected).Return([]domain.EstimateResult{
			{Variable: "income"},
		}, nil)

		rec := postJSON(t, newEstimateRouter(mockService), "/api/estimates", expected)

		assert.Equal(t, http.StatusOK, rec.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("rejects malformed run id", func(t *testing.T) {
		mockService := new(MockEstimateService)

		rec := postJSON(t, newEstimateRouter(mockService), "/api/estimates", map[string]interface{}{
			"run_id":  "not-a-uuid",
			"mapping": mapping,
		})

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "VALIDATION_FAILED")
		mockService.AssertNotCalled(t, "Estimate", mock.Anything)
	})

	t.Run("rejects invalid JSON", func(t *testing.T) {
		mockService := new(MockEstimateService)

		req := httptest.NewRequest(http.MethodPost, "/api/estimates", bytes.NewBufferString("{not json"))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		newEstimateRouter(mockService).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		mockService.AssertNotCalled(t, "Estimate", mock.Anything)
	})

	t.Run("ambiguous source becomes 400", func(t *testing.T) {
		runID := uuid.NewString()
		expected := v1.EstimateRequest{RunID: runID, Dataset: "survey.csv", Mapping: mapping}

		mockService := new(MockEstimateService)
		mockService.On("Estimate", expected).Return(nil, services.ErrNoEstimateSource)

		rec := postJSON(t, newEstimateRouter(mockService), "/api/estimates", expected)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "NO_ESTIMATE_SOURCE")
		mockService.AssertExpectations(t)
	})

	t.Run("incomplete run becomes 409", func(t *testing.T) {
		runID := uuid.NewString()
		expected := v1.EstimateRequest{RunID: runID, Mapping: mapping}

		mockService := new(MockEstimateService)
		mockService.On("Estimate", expected).
			Return(nil, fmt.Errorf("%w: %s", services.ErrRunNotComplete, runID))

		rec := postJSON(t, newEstimateRouter(mockService), "/api/estimates", expected)

		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Contains(t, rec.Body.String(), "RUN_NOT_COMPLETE")
		mockService.AssertExpectations(t)
	})

	t.Run("unmapped weight becomes 422", func(t *testing.T) {
		expected := v1.EstimateRequest{Dataset: "survey.csv", Mapping: domain.SchemaMapping{AnalysisVar1: "income"}}

		mockService := new(MockEstimateService)
		mockService.On("Estimate", expected).Return(nil, estimator.ErrWeightNotMapped)

		rec := postJSON(t, newEstimateRouter(mockService), "/api/estimates", expected)

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Contains(t, rec.Body.String(), "MAPPING_INCOMPLETE")
		mockService.AssertExpectations(t)
	})

	t.Run("unmapped analysis variable becomes 422", func(t *testing.T) {
		expected := v1.EstimateRequest{Dataset: "survey.csv", Mapping: domain.SchemaMapping{Weight: "design_weight"}}

		mockService := new(MockEstimateService)
		mockService.On("Estimate", expected).Return(nil, estimator.ErrAnalysisVarNotMapped)

		rec := postJSON(t, newEstimateRouter(mockService), "/api/estimates", expected)

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		mockService.AssertExpectations(t)
	})
}

func TestEstimateHandler_Export(t *testing.T) {
	mapping := domain.SchemaMapping{
		Weight:       "design_weight",
		AnalysisVar1: "income",
	}

	t.Run("exports artifacts", func(t *testing.T) {
		runID := uuid.NewString()
		expected := v1.ExportRequest{RunID: runID, Mapping: mapping, Charts: true}

		mockService := new(MockEstimateService)
		mockService.On("Export", expected).Return(services.ExportArtifacts{
			Estimates: "run_" + runID + "_estimates.csv",
			Charts:    "run_" + runID + "_charts.html",
		}, nil)

		rec := postJSON(t, newEstimateRouter(mockService), "/api/estimates/export", expected)

		require.Equal(t, http.StatusCreated, rec.Code)

		resp := decodeJSONBody(t, rec)
		assert.Equal(t, "success", resp["status"])
		data, ok := resp["data"].(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, "run_"+runID+"_estimates.csv", data["estimates"])
		assert.Equal(t, "run_"+runID+"_charts.html", data["charts"])
		mockService.AssertExpectations(t)
	})

	t.Run("omits charts path when not requested", func(t *testing.T) {
		runID := uuid.NewString()
		expected := v1.ExportRequest{RunID: runID, Mapping: mapping}

		mockService := new(MockEstimateService)
		mockService.On("Export", expected).Return(services.ExportArtifacts{
			Estimates: "run_" + runID + "_estimates.csv",
		}, nil)

		rec := postJSON(t, newEstimateRouter(mockService), "/api/estimates/export", expected)

		require.Equal(t, http.StatusCreated, rec.Code)
		assert.NotContains(t, rec.Body.String(), "charts")
		mockService.AssertExpectations(t)
	})

	t.Run("rejects missing run id", func(t *testing.T) {
		mockService := new(MockEstimateService)

		rec := postJSON(t, newEstimateRouter(mockService), "/api/estimates/export", map[string]interface{}{
			"mapping": mapping,
		})

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		mockService.AssertNotCalled(t, "Export", mock.Anything)
	})

	t.Run("unknown run becomes 404", func(t *testing.T) {
		runID := uuid.NewString()
		expected := v1.ExportRequest{RunID: runID, Mapping: mapping}

		mockService := new(MockEstimateService)
		mockService.On("Export", expected).
			Return(services.ExportArtifacts{}, fmt.Errorf("%w: %s", services.ErrRunNotFound, runID))

		rec := postJSON(t, newEstimateRouter(mockService), "/api/estimates/export", expected)

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Contains(t, rec.Body.String(), "RUN_NOT_FOUND")
		mockService.AssertExpectations(t)
	})
}
