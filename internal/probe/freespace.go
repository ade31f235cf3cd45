package probe

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// FreeBytes reports the bytes available to an unprivileged caller on the
// filesystem holding root. Preflight compares this against a run's scanned
// byte total before Execute; the pipeline itself never consults it.
func FreeBytes(root string) (uint64, error) {
	var stat unix.Statfs_t
	if err := unix.Statfs(root, &stat); err != nil {
		return 0, fmt.Errorf("statfs %s: %w", root, err)
	}
	return stat.Bavail * uint64(stat.Bsize), nil
}
