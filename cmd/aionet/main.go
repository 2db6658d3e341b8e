// SPDX-License-Identifier: GPL-3.0-or-later
//
// Adapted from: malbeclabs-doublezero telemetry/global-monitor/cmd/global-monitor/main.go
// (run() error pattern, signal.NotifyContext-based shutdown).
//

// Command aionet is the CLI front end for the ICMP ping engine and NDT7
// throughput tester.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "aionet:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: aionet <ping|ndt7> ...")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	switch args[0] {
	case "ping":
		return runPing(ctx, args[1:])
	case "ndt7":
		return runNDT7(ctx, args[1:])
	default:
		return fmt.Errorf("unknown subcommand %q (want ping|ndt7)", args[0])
	}
}
