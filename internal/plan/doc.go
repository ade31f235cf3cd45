// Package plan derives a run's copy plan: exactly one item per file record,
// at most one COPY per fingerprint group, deterministic destination paths,
// and numeric collision suffixes. A build is always a full recompute
// committed atomically.
package plan
