package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateRelease(); err != nil {
		return err
	}
	if err := c.validateFetch(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		return errors.New("paths.output_dir must be set")
	}
	if strings.TrimSpace(c.Paths.LedgerPath) == "" {
		return errors.New("paths.ledger_path must be set")
	}
	return nil
}

func (c *Config) validateRelease() error {
	for name, value := range map[string]string{
		"release.manifest_file": c.Release.ManifestFile,
		"release.script_file":   c.Release.ScriptFile,
		"release.acoustic_file": c.Release.AcousticFile,
	} {
		if value == "" {
			return fmt.Errorf("%s must be set", name)
		}
	}
	if c.Release.SpeakerIDWidth < 4 || c.Release.SpeakerIDWidth > 5 {
		return errors.New("release.speaker_id_width must be 4 or 5")
	}
	for name, value := range map[string]int{
		"release.min_approved_uploads": c.Release.MinApprovedUploads,
		"release.delivered_cap":        c.Release.DeliveredCap,
	} {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}
	if c.Release.GroupRejectAllowance < 0 {
		return errors.New("release.group_reject_allowance must not be negative")
	}
	return nil
}

func (c *Config) validateFetch() error {
	if c.Fetch.TimeoutSeconds <= 0 {
		return errors.New("fetch.timeout_seconds must be positive")
	}
	if c.Fetch.FFmpegBinary == "" {
		return errors.New("fetch.ffmpeg_binary must be set")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	return nil
}
