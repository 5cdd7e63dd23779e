package domain

import "time"

// RunStatus represents the status of a preparation run.
type RunStatus string

const (
	RunStatusPending   RunStatus = "pending"
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
	RunStatusCancelled RunStatus = "cancelled"
)

// StepStatus represents the status of a single pipeline step within a run.
type StepStatus string

const (
	StepStatusPending   StepStatus = "pending"
	StepStatusActive    StepStatus = "active"
	StepStatusCompleted StepStatus = "completed"
	StepStatusFailed    StepStatus = "failed"
	StepStatusSkipped   StepStatus = "skipped"
)

// StepSummary is the reportable state of one pipeline step.
type StepSummary struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Status      StepStatus `json:"status"`
	Progress    float64    `json:"progress"`
	Message     string     `json:"message,omitempty"`
	Error       string     `json:"error,omitempty"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// RunSummary is the reportable state of one preparation run: configuration,
// per-step states, the row counts before and after cleaning, and the
// verbatim transformation log.
type RunSummary struct {
	ID          string         `json:"id"`
	Dataset     string         `json:"dataset"`
	Status      RunStatus      `json:"status"`
	Config      CleaningConfig `json:"config"`
	Steps       []StepSummary  `json:"steps"`
	RowsIn      int            `json:"rows_in"`
	RowsOut     int            `json:"rows_out"`
	Outliers    int            `json:"outliers_flagged"`
	Imputed     int            `json:"cells_imputed"`
	Log         []string       `json:"log"`
	Error       string         `json:"error,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	StartedAt   *time.Time     `json:"started_at,omitempty"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
}
