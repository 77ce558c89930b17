package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"dirqueue/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantRoot := filepath.Join(tempHome, ".local", "share", "dirqueue", "default")
	if cfg.Queue.Root != wantRoot {
		t.Fatalf("unexpected queue root: got %q want %q", cfg.Queue.Root, wantRoot)
	}
	if cfg.Queue.MaxElts != config.Default().Queue.MaxElts {
		t.Fatalf("unexpected maxelts: %d", cfg.Queue.MaxElts)
	}
	if cfg.Purge.MaxTempSeconds != config.Default().Purge.MaxTempSeconds {
		t.Fatalf("unexpected maxtemp_seconds: %d", cfg.Purge.MaxTempSeconds)
	}
	if cfg.Logging.Format != "console" {
		t.Fatalf("unexpected log format: %q", cfg.Logging.Format)
	}
}

func TestLoadFromFileOverridesDefaults(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	configPath := filepath.Join(tempHome, "dirqueue.toml")
	contents := `
[queue]
root = "/var/lib/dirqueue/work"
maxelts = 500
umask = "0002"

[purge]
maxtemp_seconds = 30
maxlock_seconds = 90
interval_seconds = 5

[logging]
format = "json"
level = "debug"
`
	if err := os.WriteFile(configPath, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to be reported as existing")
	}
	if cfg.Queue.Root != "/var/lib/dirqueue/work" {
		t.Fatalf("unexpected queue root: %q", cfg.Queue.Root)
	}
	if cfg.Queue.MaxElts != 500 {
		t.Fatalf("unexpected maxelts: %d", cfg.Queue.MaxElts)
	}
	if cfg.Purge.MaxTempSeconds != 30 {
		t.Fatalf("unexpected maxtemp_seconds: %d", cfg.Purge.MaxTempSeconds)
	}
	if cfg.Logging.Format != "json" {
		t.Fatalf("unexpected log format: %q", cfg.Logging.Format)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("unexpected log level: %q", cfg.Logging.Level)
	}
}

func TestValidateRejectsBadUmask(t *testing.T) {
	cfg := config.Default()
	cfg.Queue.Umask = "not-octal"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid umask")
	}
}

func TestLoadNormalizesPurgeLevel(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	configPath := filepath.Join(tempHome, "dirqueue.toml")
	contents := "[logging]\npurge_level = \"  WARN  \"\n"
	if err := os.WriteFile(configPath, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Logging.PurgeLevel != "warn" {
		t.Fatalf("unexpected purge_level: %q", cfg.Logging.PurgeLevel)
	}
}

func TestValidateRejectsUnrecognizedPurgeLevel(t *testing.T) {
	cfg := config.Default()
	cfg.Logging.PurgeLevel = "verbose"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unrecognized purge_level")
	}
}

func TestValidateRejectsNonPositivePurgeIntervals(t *testing.T) {
	cfg := config.Default()
	cfg.Purge.IntervalSeconds = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for non-positive purge interval")
	}
}

func TestEnsureDirectoriesCreatesLogDir(t *testing.T) {
	tempDir := t.TempDir()
	cfg := config.Default()
	cfg.Daemon.LogDir = filepath.Join(tempDir, "logs")
	cfg.Queue.Root = filepath.Join(tempDir, "queue", "default")

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories returned error: %v", err)
	}
	if info, err := os.Stat(cfg.Daemon.LogDir); err != nil || !info.IsDir() {
		t.Fatalf("expected log dir to exist: %v", err)
	}
	if info, err := os.Stat(filepath.Dir(cfg.Queue.Root)); err != nil || !info.IsDir() {
		t.Fatalf("expected queue root parent to exist: %v", err)
	}
}

func TestCreateSampleWritesFile(t *testing.T) {
	tempDir := t.TempDir()
	path := filepath.Join(tempDir, "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample returned error: %v", err)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if len(content) == 0 {
		t.Fatal("expected non-empty sample config")
	}
}
