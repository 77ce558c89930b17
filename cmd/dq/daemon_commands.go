package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

func newDaemonCommand(ctx *commandContext) *cobra.Command {
	daemonCmd := &cobra.Command{
		Use:   "daemon",
		Short: "Daemon utilities",
	}
	daemonCmd.AddCommand(newDaemonStatusCommand(ctx))
	return daemonCmd
}

func newDaemonStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Report whether a dqd instance appears to hold the single-instance lock",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			lockPath := filepath.Join(cfg.Daemon.LogDir, "dqd.lock")

			lock := flock.New(lockPath)
			locked, err := lock.TryLock()
			if err != nil {
				return fmt.Errorf("probe lock %s: %w", lockPath, err)
			}

			out := cmd.OutOrStdout()
			colorize := isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
			if locked {
				lock.Unlock()
				fmt.Fprintln(out, colorStatus("DOWN", "\x1b[33m", colorize)+" — no dqd instance holds "+lockPath)
				return nil
			}
			fmt.Fprintln(out, colorStatus("RUNNING", "\x1b[32m", colorize)+" — a dqd instance holds "+lockPath)
			return nil
		},
	}
}

func colorStatus(label, ansiColor string, colorize bool) string {
	if !colorize {
		return "[" + label + "]"
	}
	return ansiColor + "[" + label + "]" + "\x1b[0m"
}
