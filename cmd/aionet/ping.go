// SPDX-License-Identifier: GPL-3.0-or-later
//
// The ping subcommand sends ICMP echo requests to one or more hosts and
// prints per-host summary statistics on exit:
//
//	ping HOST... [-c COUNT] [-T TIME] [-W WINDOW] [-i INTERVAL]
//	    [--timeout SEC] [-f|--flood] [-a|--audible] [-q|--quiet]
//	    [--show-ips] [--elastic URL]
//

package main

import (
	"context"
	"fmt"
	"os"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/netprobe-dev/aionet/icmpengine"
	"github.com/netprobe-dev/aionet/orchestrate"
	"github.com/netprobe-dev/aionet/resolver"
	"github.com/netprobe-dev/aionet/sink"
)

// pingArgs is the parsed flag surface of the ping subcommand, kept
// separate from runPing's I/O so flag parsing is unit-testable without an
// ICMP socket.
type pingArgs struct {
	hosts    []string
	count    int
	duration time.Duration
	window   time.Duration
	interval time.Duration
	timeout  time.Duration
	flood    bool
	audible  bool
	quiet    bool
	showIPs  bool
	elastic  string
}

func parsePingArgs(args []string) (*pingArgs, error) {
	fs := flag.NewFlagSet("ping", flag.ContinueOnError)

	count := fs.IntP("count", "c", 0, "number of probes per host (0: unbounded)")
	duration := fs.DurationP("time", "T", 0, "wall-clock duration bounding the run (0: unbounded)")
	window := fs.DurationP("window", "W", 0, "statistics sliding window (0: no eviction)")
	interval := fs.DurationP("interval", "i", 0, "per-probe interval (0: default)")
	timeout := fs.Duration("timeout", 0, "per-probe timeout, e.g. 500ms or 2s (0: engine default)")
	flood := fs.BoolP("flood", "f", false, "flood mode (5ms default interval instead of 250ms)")
	audible := fs.BoolP("audible", "a", false, "ring the terminal bell on each successful reply")
	quiet := fs.BoolP("quiet", "q", false, "suppress per-probe console output")
	showIPs := fs.Bool("show-ips", false, "show resolved IP addresses instead of hostnames")
	elastic := fs.String("elastic", "", "index-log endpoint base URL (optional)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	hosts := fs.Args()
	if len(hosts) == 0 {
		return nil, fmt.Errorf("ping: at least one HOST is required")
	}

	return &pingArgs{
		hosts:    hosts,
		count:    *count,
		duration: *duration,
		window:   *window,
		interval: *interval,
		timeout:  *timeout,
		flood:    *flood,
		audible:  *audible,
		quiet:    *quiet,
		showIPs:  *showIPs,
		elastic:  *elastic,
	}, nil
}

func runPing(ctx context.Context, args []string) error {
	pa, err := parsePingArgs(args)
	if err != nil {
		return err
	}

	expanded := make([]string, 0, len(pa.hosts))
	for _, h := range pa.hosts {
		names, err := resolver.ExpandPseudoHost(ctx, h, nil)
		if err != nil {
			return fmt.Errorf("ping: expanding %q: %w", h, err)
		}
		expanded = append(expanded, names...)
	}

	engine, err := icmpengine.New(nil)
	if err != nil {
		return fmt.Errorf("ping: starting ICMP engine: %w", err)
	}
	defer engine.Close()

	console := sink.NewConsoleSink(os.Stdout)
	console.Audible = pa.audible
	console.ShowIPs = pa.showIPs
	console.Quiet = pa.quiet

	var index *sink.IndexSink
	if pa.elastic != "" {
		index = sink.New(pa.elastic, nil)
		acq := index.Acquire()
		defer acq.Close()
	}

	runner := orchestrate.NewRunner(orchestrate.RunnerConfig{
		Engine:   engine,
		Resolver: resolver.New(),
		Console:  console,
		Index:    index,
		Interval: pa.interval,
		Flood:    pa.flood,
		Count:    pa.count,
		Duration: pa.duration,
		Timeout:  pa.timeout,
		Window:   pa.window,
	})

	aggregators, err := runner.Run(ctx, expanded)
	if err != nil {
		return fmt.Errorf("ping: %w", err)
	}

	for _, h := range expanded {
		summary := aggregators[h].Summary(0.5, 0.9, 0.99)
		var sent uint64
		for _, c := range summary.StatusCount {
			sent += c
		}
		fmt.Printf("--- %s ---\n", h)
		fmt.Printf("  sent=%d status=%v\n", sent, summary.StatusCount)
		if summary.Count > 0 {
			fmt.Printf("  rtt mean=%.0fus stddev=%.0fus p50=%.0fus p90=%.0fus p99=%.0fus\n",
				summary.Mean, summary.StdDev,
				summary.Quantiles[0.5], summary.Quantiles[0.9], summary.Quantiles[0.99])
		}
	}

	// Exit 0 on normal completion: packet loss never maps to a non-zero
	// exit.
	return nil
}
