// Command dqd runs the dirqueue purge daemon: a single background
// process that polls one configured queue and reaps stale staging
// entries and abandoned locks on an interval.
package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"dirqueue/internal/config"
	"dirqueue/internal/daemon"
	"dirqueue/internal/logging"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, _, err := config.Load("")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatalf("ensure directories: %v", err)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	d, err := daemon.New(cfg, logger)
	if err != nil {
		logger.Error("create daemon", logging.Error(err))
		log.Fatalf("create daemon: %v", err)
	}

	if err := d.Run(ctx); err != nil {
		logger.Error("daemon exited with error", logging.Error(err))
		log.Fatalf("daemon: %v", err)
	}
}
