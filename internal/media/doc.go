// Package media holds the pure domain rules shared across pipeline stages:
// extension tables and classification, chosen-date resolution with
// provenance, and destination path derivation including collision suffixes.
// Everything here is deterministic and free of I/O.
package media
