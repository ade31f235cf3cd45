// Package store persists the run lifecycle and every entity a run owns:
// file records, hash groups, plan items, the append-only error log, and
// artifact pointers. Persistence is a single SQLite database guarded by an
// exclusive advisory file lock, so one mediasort process at a time mutates a
// given database. The schema ships embedded with a version guard; a database
// created under a different schema version is rejected rather than migrated.
package store
