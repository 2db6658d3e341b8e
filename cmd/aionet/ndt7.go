// SPDX-License-Identifier: GPL-3.0-or-later
//
// The ndt7 subcommand group runs NDT7 throughput tests: "run" performs one
// download/upload pair, "monitor" repeats it indefinitely on a jittered
// period, and "server" hosts the download/upload WebSocket endpoints.
//

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	flag "github.com/spf13/pflag"

	"github.com/netprobe-dev/aionet/locate"
	"github.com/netprobe-dev/aionet/ndt7"
	"github.com/netprobe-dev/aionet/orchestrate"
	"github.com/netprobe-dev/aionet/sink"
	"github.com/netprobe-dev/aionet/stats"
)

func runNDT7(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: aionet ndt7 <run|monitor|server> [URL] [flags]")
	}

	switch args[0] {
	case "run":
		return runNDT7Run(ctx, args[1:])
	case "monitor":
		return runNDT7Monitor(ctx, args[1:])
	case "server":
		return runNDT7Server(ctx, args[1:])
	default:
		return fmt.Errorf("ndt7: unknown subcommand %q (want run|monitor|server)", args[0])
	}
}

// ndt7RunArgs is the parsed flag surface of "ndt7 run", kept separate from
// runNDT7Run's I/O so flag parsing is unit-testable without a network.
type ndt7RunArgs struct {
	baseURL string
	window  time.Duration
	elastic string
}

func parseNDT7RunArgs(args []string) (*ndt7RunArgs, error) {
	fs := flag.NewFlagSet("ndt7 run", flag.ContinueOnError)
	window := fs.DurationP("window", "W", orchestrate.DefaultWindow, "statistics sliding window")
	elastic := fs.String("elastic", "", "index-log endpoint base URL (optional)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	baseURL := ""
	if fs.NArg() > 0 {
		baseURL = fs.Arg(0)
	}
	return &ndt7RunArgs{baseURL: baseURL, window: *window, elastic: *elastic}, nil
}

func runNDT7Run(ctx context.Context, args []string) error {
	ra, err := parseNDT7RunArgs(args)
	if err != nil {
		return err
	}

	monitor, index := newMonitor(ra.baseURL, ra.window, ra.elastic)
	if index != nil {
		acq := index.Acquire()
		defer acq.Close()
	}

	summary, err := monitor.RunOnce(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "ndt7 run:", err)
		return err
	}

	fmt.Printf("download: %.2f Mbps\n", summary.DownloadMbps)
	fmt.Printf("upload:   %.2f Mbps\n", summary.UploadMbps)
	return nil
}

// ndt7MonitorArgs is the parsed flag surface of "ndt7 monitor".
type ndt7MonitorArgs struct {
	baseURL string
	window  time.Duration
	period  time.Duration
	elastic string
}

func parseNDT7MonitorArgs(args []string) (*ndt7MonitorArgs, error) {
	fs := flag.NewFlagSet("ndt7 monitor", flag.ContinueOnError)
	window := fs.DurationP("window", "W", orchestrate.DefaultWindow, "statistics sliding window")
	period := fs.Duration("period", orchestrate.DefaultWindow*20, "mean interval between runs")
	elastic := fs.String("elastic", "", "index-log endpoint base URL (optional)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	baseURL := ""
	if fs.NArg() > 0 {
		baseURL = fs.Arg(0)
	}
	return &ndt7MonitorArgs{baseURL: baseURL, window: *window, period: *period, elastic: *elastic}, nil
}

func runNDT7Monitor(ctx context.Context, args []string) error {
	ma, err := parseNDT7MonitorArgs(args)
	if err != nil {
		return err
	}

	monitor, index := newMonitor(ma.baseURL, ma.window, ma.elastic)
	if index != nil {
		acq := index.Acquire()
		defer acq.Close()
	}

	var runErr error
	monitor.Run(ctx, ma.period, func(summary *orchestrate.Summary, err error) {
		if err != nil {
			fmt.Fprintln(os.Stderr, "ndt7 monitor:", err)
			runErr = err
			return
		}
		fmt.Printf("download: %.2f Mbps  upload: %.2f Mbps\n", summary.DownloadMbps, summary.UploadMbps)
	})
	// ndt7: on network failure, prints the error and exits non-zero. ctx
	// cancellation (SIGINT/SIGTERM) is not itself a failure.
	if runErr != nil && ctx.Err() == nil {
		return runErr
	}
	return nil
}

func newMonitor(baseURL string, window time.Duration, elastic string) (*orchestrate.Monitor, *sink.IndexSink) {
	var index *sink.IndexSink
	if elastic != "" {
		index = sink.New(elastic, nil)
	}
	monitor := orchestrate.NewMonitor(orchestrate.MonitorConfig{
		BaseURL: baseURL,
		Locate:  locate.New(nil),
		Window:  window,
		Index:   index,
	})
	return monitor, index
}

// ndt7ServerArgs is the parsed flag surface of "ndt7 server".
type ndt7ServerArgs struct {
	addr   string
	window time.Duration
}

func parseNDT7ServerArgs(args []string) (*ndt7ServerArgs, error) {
	fs := flag.NewFlagSet("ndt7 server", flag.ContinueOnError)
	window := fs.DurationP("window", "W", orchestrate.DefaultWindow, "statistics sliding window")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	addr := ndt7.DefaultListenAddr
	if fs.NArg() > 0 {
		addr = fs.Arg(0)
	}
	return &ndt7ServerArgs{addr: addr, window: *window}, nil
}

func runNDT7Server(ctx context.Context, args []string) error {
	sa, err := parseNDT7ServerArgs(args)
	if err != nil {
		return err
	}

	var aggregators sync.Map // *websocket.Conn -> *stats.NDT7Aggregator

	handler := ndt7.NewHandler()
	handler.OnPair = func(conn *websocket.Conn, direction ndt7.Direction, p ndt7.Pair) {
		v, _ := aggregators.LoadOrStore(conn, stats.NewNDT7Aggregator(sa.window))
		agg := v.(*stats.NDT7Aggregator)
		groupKey := string(direction)
		agg.Record(groupKey, p.Measurement)
		if summary, ok := agg.Summary(groupKey); ok {
			fmt.Printf("%s %s: %s\n", conn.RemoteAddr(), direction, summary.Last.Measurement.Test)
		}
	}
	server := &http.Server{Addr: sa.addr, Handler: handler.Mux()}

	errCh := make(chan error, 1)
	go func() { errCh <- server.ListenAndServe() }()

	select {
	case <-ctx.Done():
		return server.Close()
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("ndt7 server: %w", err)
		}
		return nil
	}
}
