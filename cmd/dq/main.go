// Command dq is the operator CLI for a dirqueue instance: it can add,
// inspect, lock, unlock, and remove elements directly against the
// filesystem, run a one-shot purge, and print daemon status.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
)

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
