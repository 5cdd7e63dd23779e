package http

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"surveyprep/internal/config"
	"surveyprep/internal/services"
	ws "surveyprep/internal/websocket"
)

func newHealthRouter(t *testing.T) (chi.Router, *config.Paths) {
	t.Helper()

	paths := config.NewPaths(t.TempDir())
	require.NoError(t, paths.EnsureDirectories())

	logger := testHandlerLogger()
	data := services.NewDataService(paths, logger)
	hub := ws.NewHub(logger)
	pipelineSvc := services.NewPipelineService(paths, data, hub, nil, logger)
	service := services.NewHealthServiceWithBuildInfo("1.2.3", "2026-01-02T10:00:00Z", "abc123", paths, pipelineSvc, hub, logger)

	handler := NewHealthHandler(service, logger)
	r := chi.NewRouter()
	r.Get("/api/health", handler.HealthCheck)
	r.Get("/api/health/ready", handler.ReadinessCheck)
	r.Get("/api/health/live", handler.LivenessCheck)
	r.Get("/api/version", handler.Version)
	r.Get("/api/stats", handler.Stats)
	return r, paths
}

func getJSON(t *testing.T, router chi.Router, path string) map[string]interface{} {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	return decodeJSONBody(t, rec)
}

func TestHealthHandler_HealthCheck(t *testing.T) {
	router, _ := newHealthRouter(t)

	resp := getJSON(t, router, "/api/health")

	assert.Equal(t, "ok", resp["status"])
	assert.Equal(t, "1.2.3", resp["version"])
	assert.NotEmpty(t, resp["timestamp"])
}

func TestHealthHandler_ReadinessCheck(t *testing.T) {
	t.Run("ready when dependencies are wired", func(t *testing.T) {
		router, _ := newHealthRouter(t)

		resp := getJSON(t, router, "/api/health/ready")

		assert.Equal(t, "ready", resp["status"])
		svcs, ok := resp["services"].(map[string]interface{})
		require.True(t, ok)
		for _, name := range []string{"data", "exports", "pipeline", "websocket"} {
			entry, ok := svcs[name].(map[string]interface{})
			require.True(t, ok, "missing service entry %s", name)
			assert.Equal(t, "ready", entry["status"], name)
		}
	})

	t.Run("not ready when data directory is missing", func(t *testing.T) {
		router, paths := newHealthRouter(t)
		require.NoError(t, os.RemoveAll(paths.DataDir))

		resp := getJSON(t, router, "/api/health/ready")

		assert.Equal(t, "not_ready", resp["status"])
	})
}

func TestHealthHandler_LivenessCheck(t *testing.T) {
	router, _ := newHealthRouter(t)

	resp := getJSON(t, router, "/api/health/live")

	assert.Equal(t, "alive", resp["status"])
	rt, ok := resp["runtime"].(map[string]interface{})
	require.True(t, ok)
	assert.NotEmpty(t, rt["go_version"])
	assert.Greater(t, rt["goroutines"], float64(0))
}

func TestHealthHandler_Version(t *testing.T) {
	router, _ := newHealthRouter(t)

	resp := getJSON(t, router, "/api/version")

	assert.Equal(t, "1.2.3", resp["version"])
	assert.Equal(t, "2026-01-02T10:00:00Z", resp["build_time"])
	assert.Equal(t, "abc123", resp["build_id"])
	assert.NotEmpty(t, resp["go_version"])
}

func TestHealthHandler_Stats(t *testing.T) {
	router, paths := newHealthRouter(t)

	require.NoError(t, os.WriteFile(filepath.Join(paths.DataDir, "a.csv"), []byte("id\n1\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(paths.DataDir, "b.csv"), []byte("id\n2\n"), 0644))

	resp := getJSON(t, router, "/api/stats")

	assert.Equal(t, float64(2), resp["total_datasets"])
	assert.Equal(t, float64(0), resp["total_runs"])
	assert.Equal(t, float64(0), resp["websocket_clients"])
	assert.NotEmpty(t, resp["go_version"])
}
