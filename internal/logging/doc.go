// Package logging assembles structured slog loggers and formatting helpers used
// across the dirqueue CLI and daemon.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so queue code can automatically
// tag log lines with the bucket and element being processed and a per-run
// correlation ID. The package also provides a no-op logger for tests and
// wiring code that cannot fail.
//
// Prefer these constructors over hand-rolled slog setup to ensure new
// components emit data with the same shape and routing guarantees as the rest
// of the system.
package logging
