// Package config loads, normalizes, and validates dirqueue configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and centralizes every knob the daemon and CLI
// need: the queue root, element cap, umask, purge cutoffs, daemon log
// directory, and logging format/level/retention.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
