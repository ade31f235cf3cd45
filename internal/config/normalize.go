package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeScan()
	c.normalizePolicies()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeScan() {
	if c.Scan.ProgressEvery <= 0 {
		c.Scan.ProgressEvery = defaultProgressEvery
	}
}

func (c *Config) normalizePolicies() {
	c.Policies.Overwrite = strings.ToLower(strings.TrimSpace(c.Policies.Overwrite))
	if c.Policies.Overwrite == "" {
		c.Policies.Overwrite = PolicyOverwriteSuffix
	}
	c.Policies.OnError = strings.ToLower(strings.TrimSpace(c.Policies.OnError))
	if c.Policies.OnError == "" {
		c.Policies.OnError = PolicyOnErrorContinue
	}
	c.Policies.LivePhoto = strings.ToLower(strings.TrimSpace(c.Policies.LivePhoto))
	if c.Policies.LivePhoto == "" {
		c.Policies.LivePhoto = PolicyLivePhotoKeepBoth
	}
	c.Policies.Thumbnails = strings.ToLower(strings.TrimSpace(c.Policies.Thumbnails))
	if c.Policies.Thumbnails == "" {
		c.Policies.Thumbnails = PolicyThumbnailsSkip
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
