// Package report renders a run's artifacts from its persisted state: a
// status-count CSV, the full plan as JSON, a human-readable summary, and the
// run log pointer. Every rendered file is recorded as an artifact pointer.
package report
