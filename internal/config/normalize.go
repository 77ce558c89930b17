package config

import (
	"fmt"
	"strconv"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizeQueue(); err != nil {
		return err
	}
	c.normalizePurge()
	if err := c.normalizeDaemon(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizeQueue() error {
	var err error
	if strings.TrimSpace(c.Queue.Root) == "" {
		c.Queue.Root = defaultQueueRoot
	}
	if c.Queue.Root, err = expandPath(c.Queue.Root); err != nil {
		return fmt.Errorf("queue.root: %w", err)
	}
	if c.Queue.MaxElts <= 0 {
		c.Queue.MaxElts = defaultMaxElts
	}
	c.Queue.Umask = strings.TrimSpace(c.Queue.Umask)
	if c.Queue.Umask == "" {
		c.Queue.Umask = defaultUmask
	}
	return nil
}

func (c *Config) normalizePurge() {
	if c.Purge.MaxTempSeconds <= 0 {
		c.Purge.MaxTempSeconds = defaultMaxTempSeconds
	}
	if c.Purge.MaxLockSeconds <= 0 {
		c.Purge.MaxLockSeconds = defaultMaxLockSeconds
	}
	if c.Purge.IntervalSeconds <= 0 {
		c.Purge.IntervalSeconds = defaultIntervalSeconds
	}
}

func (c *Config) normalizeDaemon() error {
	var err error
	if strings.TrimSpace(c.Daemon.LogDir) == "" {
		c.Daemon.LogDir = defaultLogDir
	}
	if c.Daemon.LogDir, err = expandPath(c.Daemon.LogDir); err != nil {
		return fmt.Errorf("daemon.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
	c.Logging.PurgeLevel = strings.ToLower(strings.TrimSpace(c.Logging.PurgeLevel))
}

// ParseUmask parses the queue's configured umask string (octal, e.g. "0022")
// into an fs.FileMode-compatible integer.
func ParseUmask(value string) (uint32, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		value = defaultUmask
	}
	parsed, err := strconv.ParseUint(value, 8, 32)
	if err != nil {
		return 0, fmt.Errorf("parse umask %q: %w", value, err)
	}
	return uint32(parsed), nil
}
