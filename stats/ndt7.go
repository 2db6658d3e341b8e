// SPDX-License-Identifier: GPL-3.0-or-later
//
// WindowGroup keeps a per-group-key list of Measurements seeded with an
// INITIAL sentinel, and derives Delta/Rate statistics between the first
// and last retained Measurement.
//

package stats

import (
	"sync"
	"time"

	"github.com/netprobe-dev/aionet/ndt7model"
)

// Sample tags a group entry as either the INITIAL all-zero sentinel or a
// real Measurement received from the session.
type Sample struct {
	Initial     bool
	Measurement ndt7model.Measurement
	Timestamp   time.Time
}

// AppInfoDelta reports the difference and, when meaningful, the rate
// between two AppInfo sub-records.
type AppInfoDelta struct {
	ElapsedTime int64
	NumBytes    int64

	HasRate      bool
	RateNumBytes float64 // bytes/second
}

// TCPInfoDelta reports the difference and, when meaningful, the rate
// between two TCPInfo sub-records.
type TCPInfoDelta struct {
	BytesAcked    int64
	BytesReceived int64
	BytesSent     int64
	BytesRetrans  int64

	HasRate           bool
	RateBytesAcked    float64
	RateBytesReceived float64
	RateBytesSent     float64
	RateBytesRetrans  float64
}

// GroupSummary is the Delta/Rate view derived from a [WindowGroup]'s
// first and last retained samples.
type GroupSummary struct {
	First, Last    Sample
	ElapsedSeconds float64

	AppInfo *AppInfoDelta
	TCPInfo *TCPInfoDelta
}

// WindowGroup accumulates Measurements for one group key (e.g. one test
// direction), applying [WindowGroup.Insert]'s insertion/eviction rule.
type WindowGroup struct {
	window  time.Duration
	samples []Sample
}

// NewWindowGroup returns a group seeded with the INITIAL sentinel. A zero
// window keeps only the first and last sample.
func NewWindowGroup(window time.Duration, now time.Time) *WindowGroup {
	return &WindowGroup{
		window: window,
		samples: []Sample{{
			Initial:   true,
			Timestamp: now,
		}},
	}
}

// elapsedUs returns whichever sub-record's ElapsedTime is present in m,
// in microseconds, or zero if neither is present.
func elapsedUs(m ndt7model.Measurement) int64 {
	switch {
	case m.AppInfo != nil:
		return m.AppInfo.ElapsedTime
	case m.TCPInfo != nil:
		return m.TCPInfo.ElapsedTime
	default:
		return 0
	}
}

// timeDifference returns b minus a in seconds, using each sample's
// [elapsedUs] (a sample with neither sub-record, such as the INITIAL
// sentinel, counts as zero). Only when both are zero does it fall back to
// the difference of their wall timestamps.
func timeDifference(a, b Sample) float64 {
	au, bu := elapsedUs(a.Measurement), elapsedUs(b.Measurement)
	if au != 0 || bu != 0 {
		return float64(bu-au) / 1e6
	}
	return b.Timestamp.Sub(a.Timestamp).Seconds()
}

// Insert appends s and applies the group's eviction rule:
//   - while len >= 3 and head is INITIAL, drop head
//   - if no window: keep only first and last (drop index 1 while len >= 3)
//   - if a window W is set: drop head while time_difference(list[1], list[-1]) >= W
func (g *WindowGroup) Insert(s Sample) {
	g.samples = append(g.samples, s)

	for len(g.samples) >= 3 && g.samples[0].Initial {
		g.samples = g.samples[1:]
	}

	if g.window <= 0 {
		for len(g.samples) >= 3 {
			g.samples = append(g.samples[:1], g.samples[2:]...)
		}
		return
	}

	for len(g.samples) >= 3 && timeDifference(g.samples[1], g.samples[len(g.samples)-1]) >= g.window.Seconds() {
		g.samples = g.samples[1:]
	}
}

// Summary derives Delta/Rate fields from the first and last retained
// samples. Rates are populated only when the elapsed time between first
// and last exceeds 10ms.
func (g *WindowGroup) Summary() GroupSummary {
	first := g.samples[0]
	last := g.samples[len(g.samples)-1]

	elapsed := timeDifference(first, last)
	out := GroupSummary{First: first, Last: last, ElapsedSeconds: elapsed}

	hasRate := elapsed > 0.010

	if first.Measurement.AppInfo != nil || last.Measurement.AppInfo != nil {
		a, b := zeroAppInfo(first.Measurement.AppInfo), zeroAppInfo(last.Measurement.AppInfo)
		d := &AppInfoDelta{
			ElapsedTime: b.ElapsedTime - a.ElapsedTime,
			NumBytes:    b.NumBytes - a.NumBytes,
		}
		if hasRate {
			d.HasRate = true
			d.RateNumBytes = float64(d.NumBytes) / elapsed
		}
		out.AppInfo = d
	}

	if first.Measurement.TCPInfo != nil || last.Measurement.TCPInfo != nil {
		a, b := zeroTCPInfo(first.Measurement.TCPInfo), zeroTCPInfo(last.Measurement.TCPInfo)
		d := &TCPInfoDelta{
			BytesAcked:    b.BytesAcked - a.BytesAcked,
			BytesReceived: b.BytesReceived - a.BytesReceived,
			BytesSent:     b.BytesSent - a.BytesSent,
			BytesRetrans:  b.BytesRetrans - a.BytesRetrans,
		}
		if hasRate {
			d.HasRate = true
			d.RateBytesAcked = float64(d.BytesAcked) / elapsed
			d.RateBytesReceived = float64(d.BytesReceived) / elapsed
			d.RateBytesSent = float64(d.BytesSent) / elapsed
			d.RateBytesRetrans = float64(d.BytesRetrans) / elapsed
		}
		out.TCPInfo = d
	}

	return out
}

func zeroAppInfo(a *ndt7model.AppInfo) ndt7model.AppInfo {
	if a == nil {
		return ndt7model.AppInfo{}
	}
	return *a
}

func zeroTCPInfo(t *ndt7model.TCPInfo) ndt7model.TCPInfo {
	if t == nil {
		return ndt7model.TCPInfo{}
	}
	return *t
}

// NDT7Aggregator keeps one [WindowGroup] per group key (e.g. "download" or
// "upload").
type NDT7Aggregator struct {
	mu     sync.Mutex
	window time.Duration
	now    func() time.Time
	groups map[string]*WindowGroup
}

// NewNDT7Aggregator returns an aggregator using window for every group it
// creates.
func NewNDT7Aggregator(window time.Duration) *NDT7Aggregator {
	return &NDT7Aggregator{
		window: window,
		now:    time.Now,
		groups: make(map[string]*WindowGroup),
	}
}

// Record ingests one Measurement under groupKey, creating the group (and
// its INITIAL sentinel) on first use.
func (a *NDT7Aggregator) Record(groupKey string, m ndt7model.Measurement) {
	a.mu.Lock()
	defer a.mu.Unlock()

	g, ok := a.groups[groupKey]
	if !ok {
		g = NewWindowGroup(a.window, a.now())
		a.groups[groupKey] = g
	}
	g.Insert(Sample{Measurement: m, Timestamp: a.now()})
}

// Summary returns the [GroupSummary] for groupKey, or false if no
// Measurement has been recorded under that key.
func (a *NDT7Aggregator) Summary(groupKey string) (GroupSummary, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	g, ok := a.groups[groupKey]
	if !ok {
		return GroupSummary{}, false
	}
	return g.Summary(), true
}
