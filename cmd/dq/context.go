package main

import (
	"io/fs"
	"strings"
	"sync"

	"dirqueue/internal/config"
	"dirqueue/internal/dirqueue"
)

// commandContext lazily loads configuration and opens the configured
// queue at most once per invocation, shared by every subcommand.
type commandContext struct {
	configFlag *string
	queueFlag  *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	queueOnce sync.Once
	queue     *dirqueue.SimpleQueue
	queueErr  error
}

func newCommandContext(configFlag, queueFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag, queueFlag: queueFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// ensureQueue opens the queue named by --queue (or the configured
// default root) as a SimpleQueue, the shape the CLI operates on. A
// schema-bearing NormalQueue is opened the same way by library callers
// that know their fields; the CLI only ever pushes and pops payload
// bytes.
func (c *commandContext) ensureQueue() (*dirqueue.SimpleQueue, error) {
	c.queueOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.queueErr = err
			return
		}
		root := cfg.Queue.Root
		if c.queueFlag != nil && strings.TrimSpace(*c.queueFlag) != "" {
			root = strings.TrimSpace(*c.queueFlag)
		}
		parsedUmask, err := config.ParseUmask(cfg.Queue.Umask)
		if err != nil {
			c.queueErr = err
			return
		}
		umask := fs.FileMode(parsedUmask)
		q, err := dirqueue.OpenSimple(root, dirqueue.Options{
			Umask:   &umask,
			MaxElts: cfg.Queue.MaxElts,
		})
		if err != nil {
			c.queueErr = err
			return
		}
		c.queue = q
	})
	return c.queue, c.queueErr
}
