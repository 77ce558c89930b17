package main

import (
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newAddCommand(ctx *commandContext) *cobra.Command {
	var filePath string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add an element with a payload read from --file or stdin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := ctx.ensureQueue()
			if err != nil {
				return err
			}

			var reader io.Reader = cmd.InOrStdin()
			if filePath != "" {
				file, err := os.Open(filePath)
				if err != nil {
					return fmt.Errorf("open %s: %w", filePath, err)
				}
				defer file.Close()
				reader = file
			}

			payload, err := io.ReadAll(reader)
			if err != nil {
				return fmt.Errorf("read payload: %w", err)
			}

			name, err := q.Add(payload)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), name)
			return nil
		},
	}
	cmd.Flags().StringVar(&filePath, "file", "", "Read the payload from this file instead of stdin")
	return cmd
}

func newListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every element currently in the queue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := ctx.ensureQueue()
			if err != nil {
				return err
			}
			cursor := q.Copy()
			var rows [][]string
			name, err := cursor.First()
			if err != nil {
				return err
			}
			for name != "" {
				rows = append(rows, []string{name})
				name, err = cursor.Next()
				if err != nil {
					return err
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"ELEMENT"}, rows, nil))
			return nil
		},
	}
}

func newLockCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "lock <element>",
		Short: "Acquire the advisory lock on an element",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := ctx.ensureQueue()
			if err != nil {
				return err
			}
			ok, err := q.Lock(args[0], false)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("element %s is already locked", args[0])
			}
			fmt.Fprintln(cmd.OutOrStdout(), "locked")
			return nil
		},
	}
}

func newUnlockCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "unlock <element>",
		Short: "Release the advisory lock on an element",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := ctx.ensureQueue()
			if err != nil {
				return err
			}
			if _, err := q.Unlock(args[0], false); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "unlocked")
			return nil
		},
	}
}

func newGetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "get <element>",
		Short: "Print the payload of a locked element to stdout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := ctx.ensureQueue()
			if err != nil {
				return err
			}
			payload, err := q.Get(args[0])
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(payload)
			return err
		},
	}
}

func newRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <element>",
		Short: "Remove a locked element from the queue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := ctx.ensureQueue()
			if err != nil {
				return err
			}
			if err := q.Remove(args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "removed")
			return nil
		},
	}
}

func newPurgeCommand(ctx *commandContext) *cobra.Command {
	var maxTemp int
	var maxLock int
	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Run one purge cycle: sweep empty buckets, stale staging, and stale locks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			q, err := ctx.ensureQueue()
			if err != nil {
				return err
			}
			if maxTemp <= 0 {
				maxTemp = cfg.Purge.MaxTempSeconds
			}
			if maxLock <= 0 {
				maxLock = cfg.Purge.MaxLockSeconds
			}

			warn := func(kind string, attrs ...any) {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s %v\n", kind, attrs)
			}
			stats, err := q.Purge(secondsToDuration(maxTemp), secondsToDuration(maxLock), warn)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "buckets removed: %s, stale elements: %s, stale locks freed: %s\n",
				humanize.Comma(int64(stats.BucketsRemoved)),
				humanize.Comma(int64(stats.StaleElements)),
				humanize.Comma(int64(stats.StaleLocksFreed)),
			)
			return nil
		},
	}
	cmd.Flags().IntVar(&maxTemp, "maxtemp", 0, "Override purge.maxtemp_seconds")
	cmd.Flags().IntVar(&maxLock, "maxlock", 0, "Override purge.maxlock_seconds")
	return cmd
}

func newStatCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stat",
		Short: "Print the queue root and current element count",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := ctx.ensureQueue()
			if err != nil {
				return err
			}
			count, err := q.Count()
			if err != nil {
				return err
			}
			rows := [][]string{
				{"root", q.Path()},
				{"elements", humanize.Comma(int64(count))},
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"FIELD", "VALUE"}, rows, []columnAlignment{alignLeft, alignRight}))
			return nil
		},
	}
}
