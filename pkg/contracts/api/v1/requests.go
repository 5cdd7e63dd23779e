// Package v1 contains versioned API request contracts.
package v1

import (
	"surveyprep/pkg/contracts/domain"
)

// RunPipelineRequest starts a preparation run against a named dataset.
// Method strings are normalized, not validated: values outside the
// recognized sets behave as "none" rather than failing the request.
type RunPipelineRequest struct {
	Dataset string                `json:"dataset" validate:"required,min=1,max=255"`
	Config  domain.CleaningConfig `json:"config"`
}

// EstimateRequest computes estimates for one or two analysis variables.
// Exactly one of RunID (a completed preparation run) or Dataset (a raw
// file, estimated as-is) must identify the table.
type EstimateRequest struct {
	RunID   string               `json:"run_id,omitempty" validate:"omitempty,uuid"`
	Dataset string               `json:"dataset,omitempty" validate:"omitempty,min=1,max=255"`
	Mapping domain.SchemaMapping `json:"mapping"`
}

// ExportRequest writes the artifacts of a completed run (cleaned table,
// estimate summary, log, charts) into the export directory.
type ExportRequest struct {
	RunID   string               `json:"run_id" validate:"required,uuid"`
	Mapping domain.SchemaMapping `json:"mapping"`
	Charts  bool                 `json:"charts,omitempty"`
}

// ClientLogRequest reports a client-side event for server-side logging.
type ClientLogRequest struct {
	Level   string                 `json:"level" validate:"required,oneof=debug info warn error"`
	Message string                 `json:"message" validate:"required,max=2000"`
	Context map[string]interface{} `json:"context,omitempty"`
}
