// Package services implements the business logic layer of the survey
// preparation application. It sits between the HTTP handlers and the
// pipeline, estimator, and file packages, so business rules stay
// centralized and testable.
//
// # Architecture
//
// Services follow these principles:
//
//	1. Context propagation for cancellation and tracing
//	2. Dependency injection for loose coupling
//	3. Domain-focused methods that encapsulate business rules
//	4. Sentinel errors that handlers map to API responses
//
// # Services
//
//	DataService     - dataset listing, preview, upload, removal
//	PipelineService - preparation runs: start, track, cancel, artifacts
//	EstimateService - weighted/unweighted estimation over tables
//	HealthService   - readiness, liveness, version, system stats
//
// # Common pattern
//
// Services take their collaborators and a *slog.Logger at construction:
//
//	svc := services.NewDataService(paths, logger)
//	infos, err := svc.ListDatasets(ctx)
//
// Methods return wrapped sentinel errors (ErrDatasetNotFound and
// friends) so callers can branch with errors.Is without string
// matching.
package services
