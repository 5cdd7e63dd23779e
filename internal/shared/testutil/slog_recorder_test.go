package testutil

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogRecorder_CapturesRecords(t *testing.T) {
	logger, recorder := NewTestLogger()

	logger.Info("run started", slog.String("run_id", "run-1"))
	logger.Error("run failed", slog.Int("rows", 12))

	records := recorder.Records()
	require.Len(t, records, 2)
	assert.Equal(t, "run started", records[0].Message)
	assert.Equal(t, slog.LevelError, records[1].Level)
	assert.Equal(t, 12, int(records[1].Attrs["rows"].(int64)))

	assert.True(t, recorder.ContainsMessage("run started"))
	assert.True(t, recorder.ContainsAttr("run_id", "run-1"))
	assert.False(t, recorder.ContainsAttr("run_id", "run-9"))
}

func TestLogRecorder_FiltersByLevel(t *testing.T) {
	logger, recorder := NewTestLogger()

	logger.Debug("debug msg")
	logger.Info("info msg")
	logger.Warn("warn msg")
	logger.Error("error msg")

	assert.Len(t, recorder.RecordsByLevel(slog.LevelInfo), 1)
	assert.Len(t, recorder.RecordsByLevel(slog.LevelError), 1)
	assert.Equal(t, 4, recorder.Count())
}

func TestLogRecorder_CarriesBoundAttrs(t *testing.T) {
	logger, recorder := NewTestLogger()
	component := logger.With(slog.String("component", "estimator"))

	component.Info("estimate computed", slog.String("variable", "income"))

	records := recorder.Records()
	require.Len(t, records, 1)
	assert.Equal(t, "estimator", records[0].Attrs["component"])
	assert.Equal(t, "income", records[0].Attrs["variable"])
}

func TestLogRecorder_Reset(t *testing.T) {
	logger, recorder := NewTestLogger()

	logger.Info("before reset")
	require.Equal(t, 1, recorder.Count())

	recorder.Reset()
	assert.Equal(t, 0, recorder.Count())
	assert.False(t, recorder.ContainsMessage("before reset"))
}
