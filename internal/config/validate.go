package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateScan(); err != nil {
		return err
	}
	if err := c.validateHash(); err != nil {
		return err
	}
	if err := c.validateExecute(); err != nil {
		return err
	}
	if err := c.validatePolicies(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateScan() error {
	if c.Scan.MinFileSize < 0 {
		return errors.New("scan.min_file_size must be >= 0")
	}
	if c.Scan.ProgressEvery <= 0 {
		return errors.New("scan.progress_every must be positive")
	}
	return nil
}

func (c *Config) validateHash() error {
	if c.Hash.Workers < 0 {
		return errors.New("hash.workers must be >= 0 (0 selects automatic sizing)")
	}
	if c.Hash.Workers > 128 {
		return errors.New("hash.workers must be <= 128")
	}
	return nil
}

func (c *Config) validateExecute() error {
	if c.Execute.Retries < 0 {
		return errors.New("execute.retries must be >= 0")
	}
	return nil
}

func (c *Config) validatePolicies() error {
	if err := ensureOneOf("policies.overwrite", c.Policies.Overwrite,
		PolicyOverwriteSuffix, PolicyOverwriteSkip, PolicyOverwriteReplace); err != nil {
		return err
	}
	if err := ensureOneOf("policies.on_error", c.Policies.OnError,
		PolicyOnErrorContinue, PolicyOnErrorStop); err != nil {
		return err
	}
	if err := ensureOneOf("policies.live_photo", c.Policies.LivePhoto,
		PolicyLivePhotoKeepBoth, PolicyLivePhotoPreferPhoto, PolicyLivePhotoPreferVideo); err != nil {
		return err
	}
	if err := ensureOneOf("policies.thumbnails", c.Policies.Thumbnails,
		PolicyThumbnailsSkip, PolicyThumbnailsInclude); err != nil {
		return err
	}
	if c.Policies.CPULimitPct < 0 || c.Policies.CPULimitPct > 100 {
		return errors.New("policies.cpu_limit_pct must be between 0 and 100")
	}
	if c.Policies.IOLimitMbps < 0 {
		return errors.New("policies.io_limit_mbps must be >= 0")
	}
	return nil
}

func (c *Config) validateLogging() error {
	if err := ensureOneOf("logging.format", c.Logging.Format, "auto", "console", "json"); err != nil {
		return err
	}
	return ensureOneOf("logging.level", c.Logging.Level, "debug", "info", "warn", "error")
}

func ensureOneOf(key, value string, allowed ...string) error {
	for _, candidate := range allowed {
		if value == candidate {
			return nil
		}
	}
	return fmt.Errorf("%s: unsupported value %q", key, value)
}
