package metadata

import (
	"context"
	"encoding/json"
	"os/exec"
	"strings"
	"time"
)

// FFprobeProvider extracts a video container's creation time by invoking
// ffprobe. A missing binary or a container without a creation_time tag
// reports no capture date; the pipeline then falls back to the file's
// modified time.
type FFprobeProvider struct {
	binary string
}

// NewFFprobeProvider returns the video capture-date provider. An empty
// binary name defaults to "ffprobe" on PATH.
func NewFFprobeProvider(binary string) *FFprobeProvider {
	if strings.TrimSpace(binary) == "" {
		binary = "ffprobe"
	}
	return &FFprobeProvider{binary: binary}
}

type ffprobeOutput struct {
	Format struct {
		Tags struct {
			CreationTime string `json:"creation_time"`
		} `json:"tags"`
	} `json:"format"`
}

// creationTimeLayouts cover the stamps containers emit: RFC 3339 with and
// without fractional seconds, plus the bare form some muxers write.
var creationTimeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// Extract runs ffprobe against the file and parses format.tags.creation_time
// from its JSON output.
func (p *FFprobeProvider) Extract(ctx context.Context, path string) (time.Time, bool, error) {
	cmd := exec.CommandContext(ctx, p.binary,
		"-v", "quiet",
		"-print_format", "json",
		"-show_entries", "format_tags=creation_time",
		path,
	)
	output, err := cmd.Output()
	if err != nil {
		return time.Time{}, false, err
	}

	var parsed ffprobeOutput
	if err := json.Unmarshal(output, &parsed); err != nil {
		return time.Time{}, false, err
	}

	value := strings.TrimSpace(parsed.Format.Tags.CreationTime)
	if value == "" {
		return time.Time{}, false, nil
	}
	for _, layout := range creationTimeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true, nil
		}
	}
	return time.Time{}, false, nil
}
