// Package pipeline orchestrates the data preparation stages that run
// against a survey dataset before estimation.
//
// A run executes up to three steps in a fixed order: missing value
// imputation, outlier detection, and rule validation. Steps whose
// configuration is absent are skipped without leaving a trace in the
// transformation log; steps that do run append exactly one log entry
// describing their effect. The order never changes and there is no
// retry machinery: every step either completes, is skipped, or fails
// the run.
//
// The Manager owns run lifecycle and an in-memory registry of run
// state. Progress is pushed to connected clients through a
// StatusBroadcaster, which serializes snapshot updates on a single
// goroutine so WebSocket consumers always observe a consistent view.
package pipeline
