package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateQueue(); err != nil {
		return err
	}
	if err := c.validatePurge(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateQueue() error {
	if c.Queue.Root == "" {
		return errors.New("queue.root must be set")
	}
	if c.Queue.MaxElts <= 0 {
		return errors.New("queue.maxelts must be positive")
	}
	if _, err := ParseUmask(c.Queue.Umask); err != nil {
		return fmt.Errorf("queue.umask: %w", err)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.PurgeLevel {
	case "", "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.purge_level: unrecognized value %q", c.Logging.PurgeLevel)
	}
}

func (c *Config) validatePurge() error {
	if c.Purge.MaxTempSeconds <= 0 {
		return errors.New("purge.maxtemp_seconds must be positive")
	}
	if c.Purge.MaxLockSeconds <= 0 {
		return errors.New("purge.maxlock_seconds must be positive")
	}
	if c.Purge.IntervalSeconds <= 0 {
		return errors.New("purge.interval_seconds must be positive")
	}
	return nil
}
