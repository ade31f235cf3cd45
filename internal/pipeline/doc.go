// Package pipeline sequences the scan, hash, plan, execute, and report
// stages for a run and owns the run status transitions that make each stage
// resumable.
package pipeline
