// Package hash computes content fingerprints. SumFile streams a file
// through BLAKE3 in fixed-size chunks; Hasher fans that work out over a
// bounded pool sized for I/O-bound reads while keeping every store write on
// the single coordinating goroutine.
package hash
