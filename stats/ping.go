// SPDX-License-Identifier: GPL-3.0-or-later
//
// Adapted from: malbeclabs-doublezero controlplane/telemetry/internal/data/stats/stats.go
// (sorted-slice summary statistics over RTT samples), generalized to track
// per-status counts, integer-microsecond running sums, a sorted multiset
// for quantiles, and optional window eviction.
//

// Package stats implements the incremental sliding-window aggregators
// that turn a stream of ICMP probe outcomes or NDT7 measurements into
// summary statistics.
package stats

import (
	"math"
	"sort"
	"sync"
	"time"

	"github.com/netprobe-dev/aionet/icmpengine"
)

// pingEntry is one SUCCESS outcome retained for window eviction, keyed by
// (start, seq, payload).
type pingEntry struct {
	start     time.Time
	sequence  uint16
	payload   [10]byte
	elapsedUs int64
}

// PingSummary is a point-in-time snapshot of a [PingAggregator].
type PingSummary struct {
	StatusCount map[string]uint64

	Count  uint64
	Mean   float64 // microseconds
	StdDev float64 // microseconds

	// Quantiles maps a requested quantile (e.g. 0.5, 0.9, 0.99) to its
	// linearly-interpolated value in microseconds. Empty if no SUCCESS
	// samples have been recorded.
	Quantiles map[float64]float64
}

// PingAggregator incrementally summarizes a stream of [icmpengine.Outcome]
// values, optionally evicting samples older than a configured window on
// every read.
//
// Safe for concurrent use: Record, SetWindow and Summary serialize on an
// internal mutex, so several probe goroutines may record into the same
// per-host aggregator.
type PingAggregator struct {
	mu     sync.Mutex
	window time.Duration // zero means "no eviction"
	now    func() time.Time

	statusCount map[icmpengine.Status]uint64

	n       int64
	sum     int64 // Σx, microseconds
	sumSq   float64 // Σx², microseconds² (float64 to avoid overflow)
	sorted  []int64 // ascending SUCCESS elapsed times, microseconds

	windowEntries []pingEntry // time-ordered SUCCESS entries, oldest first
}

// NewPingAggregator returns an aggregator with no window configured (no
// entries are ever evicted). Use [PingAggregator.SetWindow] to enable
// eviction.
func NewPingAggregator() *PingAggregator {
	return &PingAggregator{
		now:         time.Now,
		statusCount: make(map[icmpengine.Status]uint64),
	}
}

// SetWindow configures eviction of samples whose start predates
// now-window. A zero window disables eviction.
func (a *PingAggregator) SetWindow(window time.Duration) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.window = window
}

// Record ingests a terminal [icmpengine.Outcome]. Non-terminal outcomes
// are ignored: callers should instead register a completion callback and
// call Record once the outcome becomes terminal.
func (a *PingAggregator) Record(o *icmpengine.Outcome) {
	if !o.Status.Terminal() {
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.statusCount[o.Status]++

	if o.Status != icmpengine.StatusSuccess {
		return
	}

	elapsedUs := o.Elapsed().Microseconds()
	a.ingestSuccess(o, elapsedUs)
}

func (a *PingAggregator) ingestSuccess(o *icmpengine.Outcome, elapsedUs int64) {
	a.n++
	a.sum += elapsedUs
	a.sumSq += float64(elapsedUs) * float64(elapsedUs)
	a.sorted = insertSorted(a.sorted, elapsedUs)

	if a.window > 0 {
		a.windowEntries = append(a.windowEntries, pingEntry{
			start:     o.Start,
			sequence:  o.Sequence,
			payload:   o.Payload,
			elapsedUs: elapsedUs,
		})
	}
}

// insertSorted inserts v into an ascending-sorted slice via binary search.
func insertSorted(s []int64, v int64) []int64 {
	i := sort.Search(len(s), func(i int) bool { return s[i] >= v })
	s = append(s, 0)
	copy(s[i+1:], s[i:])
	s[i] = v
	return s
}

func removeSorted(s []int64, v int64) []int64 {
	i := sort.Search(len(s), func(i int) bool { return s[i] >= v })
	if i < len(s) && s[i] == v {
		return append(s[:i], s[i+1:]...)
	}
	return s
}

// evictLocked drops window entries whose start predates now-window,
// decrementing every counter they contributed to. Caller must hold a.mu.
func (a *PingAggregator) evictLocked() {
	if a.window <= 0 {
		return
	}
	cutoff := a.now().Add(-a.window)
	i := 0
	for i < len(a.windowEntries) && a.windowEntries[i].start.Before(cutoff) {
		e := a.windowEntries[i]
		a.n--
		a.sum -= e.elapsedUs
		a.sumSq -= float64(e.elapsedUs) * float64(e.elapsedUs)
		a.sorted = removeSorted(a.sorted, e.elapsedUs)
		a.statusCount[icmpengine.StatusSuccess]--
		i++
	}
	a.windowEntries = a.windowEntries[i:]
}

// quantileLocked computes the linear-interpolation quantile: i = q*(n-1),
// f = floor(i), result = (1-(i-f))*x[f] + (i-f)*x[f+1]. Caller must hold
// a.mu and have already evicted.
func (a *PingAggregator) quantileLocked(q float64) float64 {
	n := len(a.sorted)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return float64(a.sorted[0])
	}
	i := q * float64(n-1)
	f := int(i)
	if f >= n-1 {
		return float64(a.sorted[n-1])
	}
	frac := i - float64(f)
	return (1-frac)*float64(a.sorted[f]) + frac*float64(a.sorted[f+1])
}

// Summary returns a snapshot, evicting stale window entries first.
func (a *PingAggregator) Summary(quantiles ...float64) PingSummary {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.evictLocked()

	out := PingSummary{
		StatusCount: make(map[string]uint64, len(a.statusCount)),
		Count:       uint64(a.n),
	}
	for status, count := range a.statusCount {
		out.StatusCount[status.String()] = count
	}

	if a.n > 0 {
		mean := float64(a.sum) / float64(a.n)
		variance := a.sumSq/float64(a.n) - mean*mean
		if variance < 0 {
			variance = 0
		}
		out.Mean = mean
		out.StdDev = math.Sqrt(variance)
	}

	if len(quantiles) > 0 && len(a.sorted) > 0 {
		out.Quantiles = make(map[float64]float64, len(quantiles))
		for _, q := range quantiles {
			out.Quantiles[q] = a.quantileLocked(q)
		}
	}

	return out
}
