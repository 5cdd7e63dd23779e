package services

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"surveyprep/internal/config"
	"surveyprep/pkg/contracts"
	"surveyprep/pkg/contracts/domain"
)

func newTestHealthService(t *testing.T) (*HealthService, *PipelineService, *config.Paths) {
	t.Helper()

	pipelineSvc, _, paths := newTestPipelineService(t)
	svc := NewHealthServiceWithBuildInfo(contracts.Version, "2026-01-01T00:00:00Z", "abc123",
		paths, pipelineSvc, nil, testLogger())

	return svc, pipelineSvc, paths
}

func TestHealthCheck(t *testing.T) {
	svc, _, _ := newTestHealthService(t)

	status := svc.HealthCheck(context.Background())
	assert.Equal(t, "ok", status.Status)
	assert.Equal(t, contracts.Version, status.Version)
	assert.False(t, status.Timestamp.IsZero())
}

func TestReadinessCheckReady(t *testing.T) {
	svc, _, _ := newTestHealthService(t)

	status := svc.ReadinessCheck(context.Background())
	assert.Equal(t, "ready", status.Status)

	data, ok := status.Services["data"].(ServiceHealth)
	require.True(t, ok)
	assert.Equal(t, "ready", data.Status)

	pipe, ok := status.Services["pipeline"].(ServiceHealth)
	require.True(t, ok)
	assert.Equal(t, "ready", pipe.Status)

	// No hub wired in tests, so the websocket dependency is not ready
	hub, ok := status.Services["websocket"].(ServiceHealth)
	require.True(t, ok)
	assert.Equal(t, "not_ready", hub.Status)
}

func TestReadinessCheckMissingDataDir(t *testing.T) {
	paths := config.NewPaths(filepath.Join(t.TempDir(), "nonexistent"))
	svc := NewHealthService(contracts.Version, paths, nil, nil, testLogger())

	status := svc.ReadinessCheck(context.Background())
	assert.Equal(t, "not_ready", status.Status)

	data, ok := status.Services["data"].(ServiceHealth)
	require.True(t, ok)
	assert.Equal(t, "not_ready", data.Status)
	assert.Contains(t, data.Message, "Data directory not found")
}

func TestLivenessCheck(t *testing.T) {
	svc, _, _ := newTestHealthService(t)

	status := svc.LivenessCheck(context.Background())
	assert.Equal(t, "alive", status.Status)
	require.NotNil(t, status.Runtime)
	assert.Contains(t, status.Runtime, "goroutines")
}

func TestVersionIncludesBuildInfo(t *testing.T) {
	svc, _, _ := newTestHealthService(t)

	info := svc.Version()
	assert.Equal(t, contracts.Version, info["version"])
	assert.Equal(t, "2026-01-01T00:00:00Z", info["build_time"])
	assert.Equal(t, "abc123", info["build_id"])
	assert.Contains(t, info, "go_version")
}

func TestVersionOmitsEmptyBuildInfo(t *testing.T) {
	svc := NewHealthService(contracts.Version, nil, nil, nil, testLogger())

	info := svc.Version()
	assert.NotContains(t, info, "build_time")
	assert.NotContains(t, info, "build_id")
}

func TestSystemStats(t *testing.T) {
	svc, pipelineSvc, paths := newTestHealthService(t)
	writeDataset(t, paths, "survey.csv", "age\n30\n")

	summary, err := pipelineSvc.StartRun(context.Background(), "survey.csv", domain.CleaningConfig{})
	require.NoError(t, err)
	waitForRun(t, pipelineSvc, summary.ID)

	stats, err := svc.SystemStats(context.Background())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, stats.TotalDatasets, 1)
	assert.Greater(t, stats.TotalSizeBytes, int64(0))
	assert.Equal(t, 1, stats.TotalRuns)
	assert.NotEmpty(t, stats.GoVersion)
}

func TestGetDetailedHealth(t *testing.T) {
	svc, _, _ := newTestHealthService(t)

	detail := svc.GetDetailedHealth(context.Background())
	assert.Contains(t, detail, "health")
	assert.Contains(t, detail, "readiness")
	assert.Contains(t, detail, "liveness")
	assert.Contains(t, detail, "stats")
}
