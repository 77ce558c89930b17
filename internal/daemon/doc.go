// Package daemon runs a periodic purge loop against a dirqueue and
// enforces single-instance execution, mirroring the teacher's
// internal/daemon flock-based locking and internal/daemonrun process
// wiring adapted to a single background job instead of a multi-stage
// workflow manager.
package daemon
