// Package rollback reverses a run by deleting its verified destination
// files. Per-item failures are logged and skipped; the run always ends
// ROLLED_BACK.
package rollback
