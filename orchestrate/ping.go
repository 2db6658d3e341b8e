// SPDX-License-Identifier: GPL-3.0-or-later
//
// Adapted from: malbeclabs-doublezero telemetry/global-monitor/internal/gm/runner.go
// (RunnerConfig with an injectable clockwork.Clock driving a ticker loop).
//

// Package orchestrate composes the resolver, ICMP engine, NDT7 session
// machine, statistics aggregators, and sinks into the two end-to-end
// workflows: round-robin ping and NDT7 run/monitor.
package orchestrate

import (
	"context"
	"net/netip"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/netprobe-dev/aionet/icmpengine"
	"github.com/netprobe-dev/aionet/resolver"
	"github.com/netprobe-dev/aionet/sink"
	"github.com/netprobe-dev/aionet/stats"
)

// defaultFloodInterval and defaultInterval are the per-host interval
// defaults before dividing by host count.
const (
	defaultFloodInterval = 5 * time.Millisecond
	defaultInterval      = 250 * time.Millisecond
)

// RunnerConfig configures a ping-pretty [Runner].
type RunnerConfig struct {
	Clock    clockwork.Clock
	Engine   *icmpengine.Engine
	Resolver resolver.Resolver

	Console *sink.ConsoleSink
	Index   *sink.IndexSink // optional

	// Interval is the per-probe spacing; zero selects the flood/non-flood
	// default, divided by the number of hosts.
	Interval time.Duration
	Flood    bool

	// Count is the number of probes issued per host; zero means
	// unbounded (Duration or ctx must then bound the run).
	Count int

	// Duration bounds the run by wall-clock time; zero means unbounded.
	Duration time.Duration

	Timeout time.Duration

	// Window bounds the per-host statistics aggregator's sliding window;
	// zero means no eviction (the aggregator retains every sample).
	Window time.Duration
}

// Runner drives ping-pretty: resolves every hostname, interleaves probes
// round-robin across hosts (cycling within each host's addresses),
// and feeds every terminal outcome to the console sink, the optional
// index-log sink, and a per-host [stats.PingAggregator].
type Runner struct {
	cfg RunnerConfig
}

// NewRunner returns a [Runner] with cfg.Clock defaulted to a real clock.
func NewRunner(cfg RunnerConfig) *Runner {
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	return &Runner{cfg: cfg}
}

// hostCycle round-robins through one host's resolved addresses.
type hostCycle struct {
	host  string
	addrs []netip.Addr
	next  int
}

func (c *hostCycle) take() netip.Addr {
	a := c.addrs[c.next%len(c.addrs)]
	c.next++
	return a
}

// Run resolves hosts, then issues probes until Count*len(hosts) probes
// have been sent, or Duration elapses, or ctx is done — whichever comes
// first. It returns one [stats.PingAggregator] per host.
func (r *Runner) Run(ctx context.Context, hosts []string) (map[string]*stats.PingAggregator, error) {
	cycles := make([]*hostCycle, 0, len(hosts))
	aggregators := make(map[string]*stats.PingAggregator, len(hosts))
	for _, h := range hosts {
		addrs, err := r.cfg.Resolver.Resolve(ctx, h)
		if err != nil {
			return nil, err
		}
		cycles = append(cycles, &hostCycle{host: h, addrs: addrs})
		agg := stats.NewPingAggregator()
		agg.SetWindow(r.cfg.Window)
		aggregators[h] = agg
	}

	interval := r.cfg.Interval
	if interval <= 0 {
		base := defaultInterval
		if r.cfg.Flood {
			base = defaultFloodInterval
		}
		interval = base / time.Duration(max(len(hosts), 1))
	}

	var deadline <-chan time.Time
	if r.cfg.Duration > 0 {
		timer := r.cfg.Clock.NewTimer(r.cfg.Duration)
		defer timer.Stop()
		deadline = timer.Chan()
	}

	var wg sync.WaitGroup
	sent := 0
	totalBound := r.cfg.Count * len(hosts)

	ticker := r.cfg.Clock.NewTicker(interval)
	defer ticker.Stop()

probeLoop:
	for i := 0; ; i = (i + 1) % len(cycles) {
		if totalBound > 0 && sent >= totalBound {
			break
		}
		if len(cycles) == 0 {
			break
		}

		select {
		case <-ctx.Done():
			break probeLoop
		case <-deadline:
			break probeLoop
		case <-ticker.Chan():
		}

		cycle := cycles[i]
		addr := cycle.take()
		handle, err := r.cfg.Engine.Ping(ctx, addr, icmpengine.PingOptions{
			Timeout: r.cfg.Timeout,
			Labels:  icmpengine.Labels{"host": cycle.host},
		})
		sent++
		if err != nil {
			continue
		}

		wg.Add(1)
		go func(host string) {
			defer wg.Done()
			outcome, err := handle.Wait(context.Background())
			if err != nil {
				return
			}
			aggregators[host].Record(outcome)
			if r.cfg.Console != nil {
				r.cfg.Console.Record(host, outcome)
			}
			if r.cfg.Index != nil {
				r.cfg.Index.Post("ping", outcomeDoc(host, outcome))
			}
		}(cycle.host)
	}

	wg.Wait()
	return aggregators, nil
}

func outcomeDoc(host string, o *icmpengine.Outcome) map[string]any {
	return map[string]any{
		"host":        host,
		"destination": o.Destination.String(),
		"sequence":    o.Sequence,
		"status":      o.Status.String(),
		"elapsedUs":   o.Elapsed().Microseconds(),
		"wallClock":   o.WallClock,
	}
}
