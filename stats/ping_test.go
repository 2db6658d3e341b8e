// SPDX-License-Identifier: GPL-3.0-or-later

package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netprobe-dev/aionet/icmpengine"
)

func outcome(status icmpengine.Status, start time.Time, elapsed time.Duration) *icmpengine.Outcome {
	return &icmpengine.Outcome{
		Status: status,
		Start:  start,
		End:    start.Add(elapsed),
	}
}

func TestPingAggregatorIgnoresNonTerminal(t *testing.T) {
	a := NewPingAggregator()
	a.Record(&icmpengine.Outcome{Status: icmpengine.StatusPending})
	s := a.Summary()
	assert.Equal(t, uint64(0), s.Count)
	assert.Empty(t, s.StatusCount)
}

func TestPingAggregatorStatusCount(t *testing.T) {
	a := NewPingAggregator()
	now := time.Now()
	a.Record(outcome(icmpengine.StatusSuccess, now, 10*time.Millisecond))
	a.Record(outcome(icmpengine.StatusTimeout, now, 0))
	a.Record(outcome(icmpengine.StatusSuccess, now, 20*time.Millisecond))

	s := a.Summary()
	assert.Equal(t, uint64(2), s.StatusCount["SUCCESS"])
	assert.Equal(t, uint64(1), s.StatusCount["TIMEOUT"])
	assert.Equal(t, uint64(2), s.Count)
}

func TestPingAggregatorMeanAndQuantiles(t *testing.T) {
	a := NewPingAggregator()
	now := time.Now()
	for _, ms := range []int{10, 20, 30, 40, 50} {
		a.Record(outcome(icmpengine.StatusSuccess, now, time.Duration(ms)*time.Millisecond))
	}

	s := a.Summary(0.5, 1.0)
	assert.InDelta(t, 30000.0, s.Mean, 0.001) // microseconds
	require.Contains(t, s.Quantiles, 0.5)
	assert.InDelta(t, 30000.0, s.Quantiles[0.5], 0.001)
	assert.InDelta(t, 50000.0, s.Quantiles[1.0], 0.001)
}

func TestPingAggregatorWindowEviction(t *testing.T) {
	a := NewPingAggregator()
	a.SetWindow(time.Minute)

	base := time.Now()
	a.now = func() time.Time { return base }

	old := outcome(icmpengine.StatusSuccess, base.Add(-2*time.Minute), 10*time.Millisecond)
	a.Record(old)

	recent := outcome(icmpengine.StatusSuccess, base, 20*time.Millisecond)
	a.Record(recent)

	s := a.Summary()
	assert.Equal(t, uint64(1), s.Count)
	assert.InDelta(t, 20000.0, s.Mean, 0.001)
}
