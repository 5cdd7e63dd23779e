package pipeline

import (
	"errors"
	"fmt"
)

// ErrorType classifies run failures.
type ErrorType string

const (
	// ErrorTypeValidation indicates a run request that cannot be executed.
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeExecution indicates a step failed while running.
	ErrorTypeExecution ErrorType = "execution"
	// ErrorTypeCancellation indicates the run was cancelled by the caller.
	ErrorTypeCancellation ErrorType = "cancellation"
)

// Sentinel errors for run lookup and control.
var (
	// ErrRunNotFound indicates the requested run does not exist.
	ErrRunNotFound = errors.New("run not found")
	// ErrRunNotCancellable indicates the run already reached a terminal status.
	ErrRunNotCancellable = errors.New("run is not cancellable")
)

// RunError is a classified failure raised by the pipeline. There is no
// retry machinery: every RunError is terminal for its run.
type RunError struct {
	Type    ErrorType
	Step    string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *RunError) Error() string {
	if e.Step != "" {
		if e.Cause != nil {
			return fmt.Sprintf("%s error in step %q: %s: %v", e.Type, e.Step, e.Message, e.Cause)
		}
		return fmt.Sprintf("%s error in step %q: %s", e.Type, e.Step, e.Message)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s error: %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s error: %s", e.Type, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As chains.
func (e *RunError) Unwrap() error {
	return e.Cause
}

// NewValidationError creates an error for a request that cannot run.
func NewValidationError(message string) *RunError {
	return &RunError{Type: ErrorTypeValidation, Message: message}
}

// NewExecutionError creates an error for a step that failed while running.
func NewExecutionError(step, message string, cause error) *RunError {
	return &RunError{Type: ErrorTypeExecution, Step: step, Message: message, Cause: cause}
}

// NewCancellationError creates an error for a cancelled run.
func NewCancellationError(step string) *RunError {
	return &RunError{Type: ErrorTypeCancellation, Step: step, Message: "run cancelled"}
}

// GetErrorType extracts the classification from an error chain, or
// ErrorTypeExecution for plain errors.
func GetErrorType(err error) ErrorType {
	var runErr *RunError
	if errors.As(err, &runErr) {
		return runErr.Type
	}
	return ErrorTypeExecution
}

// IsCancellation reports whether the error chain represents a cancelled run.
func IsCancellation(err error) bool {
	return GetErrorType(err) == ErrorTypeCancellation
}
