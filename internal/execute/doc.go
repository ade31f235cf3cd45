// Package execute performs the planned copies: stream source to
// destination, preserve timestamps, verify by re-hashing, retry transient
// failures, and persist every status transition so an interrupted run
// resumes without redoing verified work.
package execute
