// Package preflight runs the checks the CLI performs before starting or
// resuming a run: directory access, destination free space versus scanned
// bytes, and external tool availability.
package preflight
