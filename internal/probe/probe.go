package probe

import (
	"path/filepath"
	"strings"
)

// Filesystem answers attribute questions about paths during a scan walk.
// The scanner prunes anything flagged hidden, system, or reparse.
type Filesystem interface {
	IsHidden(path string) bool
	IsSystem(path string) bool
	IsReparse(path string) bool
}

// UnixProbe implements Filesystem with Unix conventions: dotfiles are
// hidden; the system and reparse attributes are Windows-only and always
// report false here.
type UnixProbe struct{}

// NewFilesystemProbe returns the platform filesystem probe.
func NewFilesystemProbe() *UnixProbe {
	return &UnixProbe{}
}

func (UnixProbe) IsHidden(path string) bool {
	name := filepath.Base(path)
	return strings.HasPrefix(name, ".") && name != "." && name != ".."
}

func (UnixProbe) IsSystem(string) bool { return false }

func (UnixProbe) IsReparse(string) bool { return false }
