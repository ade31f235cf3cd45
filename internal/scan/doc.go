// Package scan walks a run's source tree and materializes its file records:
// hidden/system pruning, extension exclusion, media classification, class
// and size filters, capture-date resolution with mtime fallback, and batched
// store writes. Per-file failures are logged and skipped; the walk
// continues.
package scan
