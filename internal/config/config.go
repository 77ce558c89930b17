package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Queue contains the root directory and capacity settings for a dirqueue
// instance.
type Queue struct {
	Root    string `toml:"root"`
	MaxElts int    `toml:"maxelts"`
	Umask   string `toml:"umask"`
}

// Purge contains the staleness cutoffs and poll interval the daemon uses
// when sweeping a queue.
type Purge struct {
	MaxTempSeconds  int `toml:"maxtemp_seconds"`
	MaxLockSeconds  int `toml:"maxlock_seconds"`
	IntervalSeconds int `toml:"interval_seconds"`
}

// Daemon contains settings for the long-running purge daemon.
type Daemon struct {
	LogDir string `toml:"log_dir"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
	// PurgeLevel, when set, raises the minimum level for the daemon's
	// per-cycle purge logging only — useful for quieting routine "purge
	// cycle" lines to warn while keeping other daemon logging at info. It
	// cannot make purge logging more verbose than Level: records below
	// Level are still dropped by the base handler.
	PurgeLevel string `toml:"purge_level"`
}

// Config encapsulates all configuration values for dirqueue.
//
// Configuration sections by subsystem:
//   - Queue: root directory, maximum element count, creation umask
//   - Purge: staleness cutoffs and poll interval for the daemon sweep
//   - Daemon: log directory and single-instance lock location
//   - Logging: log format, level, and retention
type Config struct {
	Queue   Queue   `toml:"queue"`
	Purge   Purge   `toml:"purge"`
	Daemon  Daemon  `toml:"daemon"`
	Logging Logging `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/dirqueue/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath("~/.config/dirqueue/config.toml")
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("dirqueue.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories the daemon needs before it can
// open the queue or write logs: the queue root's parent and the log
// directory. The queue root itself is created by dirqueue.Open.
func (c *Config) EnsureDirectories() error {
	if dir := filepath.Dir(c.Queue.Root); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if strings.TrimSpace(c.Daemon.LogDir) != "" {
		if err := os.MkdirAll(c.Daemon.LogDir, 0o755); err != nil {
			return fmt.Errorf("create log directory %q: %w", c.Daemon.LogDir, err)
		}
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	sample := sampleConfig

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sample), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
