// Package metadata provides the capture-date providers the scanner consults:
// EXIF tags for photos and RAW files, ffprobe container metadata for videos.
// Providers never fail a scan; anything short of a parsed datetime reports
// "no capture date" and the caller falls back to filesystem modified time.
package metadata
