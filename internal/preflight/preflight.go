package preflight

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"mediasort/internal/config"
	"mediasort/internal/deps"
	"mediasort/internal/probe"
)

// Result captures the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// CheckDirectoryAccess verifies the path exists, is a directory, and grants
// read/write/traverse access to the current user.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckSourceAccess verifies the source root exists and is readable. The
// pipeline never writes under the source, so write access is not required.
func CheckSourceAccess(path string) Result {
	const name = "Source directory"
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (readable)", path)}
}

// CheckFreeSpace compares the destination filesystem's free bytes against
// the run's total scanned bytes. Consulted before Execute, never by the
// pipeline itself.
func CheckFreeSpace(destRoot string, requiredBytes int64) Result {
	const name = "Free space"
	free, err := probe.FreeBytes(destRoot)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", destRoot, err)}
	}
	if requiredBytes > 0 && free < uint64(requiredBytes) {
		return Result{
			Name:   name,
			Detail: fmt.Sprintf("%s (need %d bytes, %d available)", destRoot, requiredBytes, free),
		}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%d bytes available)", destRoot, free)}
}

// CheckSystemDeps evaluates the external binaries mediasort can use.
func CheckSystemDeps(cfg *config.Config) []deps.Status {
	return deps.CheckBinaries([]deps.Requirement{
		deps.FFprobe(cfg.FFprobeBinary()),
	})
}

// FailedRequired filters results to hard failures. Optional tool checks are
// not represented here; a missing ffprobe only downgrades video dates.
func FailedRequired(results []Result) []Result {
	var failed []Result
	for _, result := range results {
		if !result.Passed {
			failed = append(failed, result)
		}
	}
	return failed
}
