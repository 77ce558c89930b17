package daemon

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"dirqueue/internal/config"
	"dirqueue/internal/dirqueue"
	"dirqueue/internal/logging"
	"dirqueue/internal/qctx"
)

// Daemon runs a periodic purge loop against one dirqueue and enforces
// single-instance execution via an flock on the daemon's lock file.
type Daemon struct {
	cfg    *config.Config
	logger *slog.Logger
	queue  *dirqueue.NormalQueue

	lockPath string
	lock     *flock.Flock
	pidPath  string

	running atomic.Bool
	cancel  context.CancelFunc
}

// New opens the queue described by cfg and constructs a Daemon ready to
// Run. The caller is responsible for having already validated cfg.
func New(cfg *config.Config, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || logger == nil {
		return nil, errors.New("daemon requires config and logger")
	}

	parsedUmask, err := config.ParseUmask(cfg.Queue.Umask)
	if err != nil {
		return nil, err
	}
	umask := fs.FileMode(parsedUmask)
	q, err := dirqueue.Open(cfg.Queue.Root, dirqueue.Options{
		Umask:   &umask,
		MaxElts: cfg.Queue.MaxElts,
		Schema:  dirqueue.Schema{dirqueue.PayloadField: {Type: dirqueue.Binary}},
	})
	if err != nil {
		return nil, fmt.Errorf("open queue: %w", err)
	}

	lockPath := filepath.Join(cfg.Daemon.LogDir, "dqd.lock")
	return &Daemon{
		cfg:      cfg,
		logger:   logger,
		queue:    q,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
		pidPath:  filepath.Join(cfg.Daemon.LogDir, "dqd.pid"),
	}, nil
}

// Run acquires the single-instance lock, writes a PID file, and polls
// Purge on cfg.Purge.IntervalSeconds until ctx is cancelled. It returns
// nil on a clean shutdown.
func (d *Daemon) Run(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock %s: %w", d.lockPath, err)
	}
	if !ok {
		return fmt.Errorf("another dqd instance holds %s", d.lockPath)
	}
	defer d.lock.Unlock()

	if err := d.writePIDFile(); err != nil {
		return err
	}
	defer os.Remove(d.pidPath)

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	defer cancel()
	d.running.Store(true)
	defer d.running.Store(false)

	d.logger.Info("daemon started",
		logging.String(logging.FieldEventType, "daemon_started"),
		logging.String("lock_path", d.lockPath),
		logging.Int("interval_seconds", d.cfg.Purge.IntervalSeconds),
	)

	interval := time.Duration(d.cfg.Purge.IntervalSeconds) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		d.runCycle(runCtx)
		select {
		case <-runCtx.Done():
			d.logger.Info("daemon shutting down",
				logging.String(logging.FieldEventType, "daemon_stopped"),
			)
			return nil
		case <-ticker.C:
		}
	}
}

// Stop cancels the running purge loop, if any.
func (d *Daemon) Stop() {
	if d.cancel != nil {
		d.cancel()
	}
}

func (d *Daemon) runCycle(ctx context.Context) {
	correlationID := uuid.NewString()
	cycleCtx := qctx.WithCorrelationID(ctx, correlationID)
	logger := logging.WithContext(cycleCtx, d.logger)
	if d.cfg.Logging.PurgeLevel != "" {
		logger = logging.WithLevelOverride(logger, logging.ParseLevel(d.cfg.Logging.PurgeLevel))
	}

	maxTemp := time.Duration(d.cfg.Purge.MaxTempSeconds) * time.Second
	maxLock := time.Duration(d.cfg.Purge.MaxLockSeconds) * time.Second

	warn := func(kind string, attrs ...any) {
		args := append([]any{logging.String(logging.FieldEventType, kind)}, attrs...)
		logger.Warn("purge warning", args...)
	}

	stats, err := d.queue.Purge(maxTemp, maxLock, warn)
	if err != nil {
		logging.ErrorWithContext(logger, "purge cycle failed", "purge_cycle_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check queue root permissions and filesystem health"),
			logging.String(logging.FieldImpact, "stale staging entries and locks are not reaped"),
		)
		return
	}

	logger.Info("purge cycle",
		logging.String(logging.FieldEventType, "purge_cycle"),
		logging.Int("buckets_removed", stats.BucketsRemoved),
		logging.Int("stale_elements", stats.StaleElements),
		logging.Int("stale_locks_freed", stats.StaleLocksFreed),
	)
}

func (d *Daemon) writePIDFile() error {
	if d.pidPath == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	if err := os.WriteFile(d.pidPath, []byte(value), 0o644); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	return nil
}

// LockPath returns the path to the daemon's single-instance lock file.
// The CLI's "daemon status" command probes the same path, which it
// derives from the configuration itself.
func (d *Daemon) LockPath() string {
	return d.lockPath
}

// Queue exposes the underlying queue handle for introspection.
func (d *Daemon) Queue() *dirqueue.NormalQueue {
	return d.queue
}
