package execute

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// copyChunkSize is the streaming buffer for source-to-destination copies.
const copyChunkSize = 1024 * 1024

// copyStream copies src to dst, creating parent directories as needed and
// preserving the source's modification time on the copy. Returns the bytes
// written.
func copyStream(src, dst string) (int64, error) {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return 0, fmt.Errorf("stat source: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return 0, fmt.Errorf("create destination directory: %w", err)
	}

	in, err := os.Open(src)
	if err != nil {
		return 0, fmt.Errorf("open source: %w", err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return 0, fmt.Errorf("create destination: %w", err)
	}
	defer func() { _ = out.Close() }()

	buf := make([]byte, copyChunkSize)
	written, err := io.CopyBuffer(out, in, buf)
	if err != nil {
		return written, fmt.Errorf("copy: %w", err)
	}
	if err := out.Close(); err != nil {
		return written, fmt.Errorf("close destination: %w", err)
	}

	mtime := srcInfo.ModTime()
	if err := os.Chtimes(dst, time.Now(), mtime); err != nil {
		return written, fmt.Errorf("preserve timestamps: %w", err)
	}
	return written, nil
}
