package services

import "errors"

// Service errors
var (
	// Dataset errors
	ErrDatasetNotFound    = errors.New("dataset not found")
	ErrInvalidDatasetName = errors.New("invalid dataset name")
	ErrUnsupportedFormat  = errors.New("unsupported dataset format")
	ErrEmptyUpload        = errors.New("upload body is empty")

	// Run errors
	ErrRunNotFound   = errors.New("run not found")
	ErrRunNotRunning = errors.New("run is not running")

	// Estimation errors
	ErrNoEstimateSource = errors.New("estimate request names neither a dataset nor a run")
	ErrRunNotComplete   = errors.New("run has not completed")

	// General errors
	ErrInvalidInput       = errors.New("invalid input")
	ErrServiceUnavailable = errors.New("service temporarily unavailable")
)
