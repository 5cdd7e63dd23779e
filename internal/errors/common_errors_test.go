package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want string
	}{
		{
			name: "with cause",
			err:  NewParsingError("failed to parse row", errors.New("bad value")),
			want: "[PARSING] failed to parse row: bad value",
		},
		{
			name: "without cause",
			err:  NewAppValidationError("column is required"),
			want: "[VALIDATION] column is required",
		},
		{
			name: "pipeline error",
			err:  NewPipelineError("step failed", errors.New("boom")),
			want: "[PIPELINE] step failed: boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("underlying")
	err := NewStorageError("write failed", cause)

	assert.True(t, errors.Is(err, cause))

	var appErr *AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, ErrTypeStorage, appErr.Type)
}

func TestAppError_WithContext(t *testing.T) {
	err := NewEstimationError("weighted estimate failed", nil).
		WithContext("run_id", "run-7").
		WithContext("mode", "weighted")

	assert.Equal(t, "run-7", err.Context["run_id"])
	assert.Equal(t, "weighted", err.Context["mode"])
}

func TestAppError_WithContextNilMap(t *testing.T) {
	err := &AppError{Type: ErrTypeConfig, Message: "bad config"}
	err.WithContext("key", "value")

	assert.Equal(t, "value", err.Context["key"])
}

func TestAppErrorConstructors(t *testing.T) {
	tests := []struct {
		name     string
		err      *AppError
		wantType ErrorType
	}{
		{"parsing", NewParsingError("m", nil), ErrTypeParsing},
		{"storage", NewStorageError("m", nil), ErrTypeStorage},
		{"validation", NewAppValidationError("m"), ErrTypeValidation},
		{"not found", NewNotFoundError("dataset"), ErrTypeNotFound},
		{"permission", NewPermissionError("m"), ErrTypePermission},
		{"config", NewConfigError("m", nil), ErrTypeConfig},
		{"pipeline", NewPipelineError("m", nil), ErrTypePipeline},
		{"estimation", NewEstimationError("m", nil), ErrTypeEstimation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantType, tt.err.Type)
		})
	}
}

func TestNewNotFoundErrorMessage(t *testing.T) {
	err := NewNotFoundError("dataset")
	assert.Equal(t, "[NOT_FOUND] dataset not found", err.Error())
}
