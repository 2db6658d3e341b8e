// SPDX-License-Identifier: GPL-3.0-or-later
//
// Adapted from: malbeclabs-doublezero's clockwork.Clock injection pattern.
//

package orchestrate

import (
	"context"
	"math"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/netprobe-dev/aionet/locate"
	"github.com/netprobe-dev/aionet/ndt7"
	"github.com/netprobe-dev/aionet/sink"
	"github.com/netprobe-dev/aionet/stats"
)

// DefaultWindow is a monitor's default statistics window.
const DefaultWindow = 3 * time.Second

// Summary is the combined result of one download/upload run, pairing
// each direction's final [stats.GroupSummary] with its throughput.
type Summary struct {
	DownloadMbps float64
	UploadMbps   float64

	Download stats.GroupSummary
	Upload   stats.GroupSummary
}

// MonitorConfig configures a [Monitor].
type MonitorConfig struct {
	Clock clockwork.Clock

	// BaseURL is the server's base HTTP(S) URL. If empty, Locate is used
	// to discover the nearest server.
	BaseURL string
	Locate  *locate.Client

	Window      time.Duration
	MaxDuration time.Duration

	Console *sink.ConsoleSink
	Index   *sink.IndexSink
}

// Monitor runs a download/upload test once ([Monitor.RunOnce]) or
// repeatedly ([Monitor.Run]).
type Monitor struct {
	cfg MonitorConfig
}

// NewMonitor returns a [Monitor] with cfg.Clock defaulted to a real clock
// and cfg.Window defaulted to [DefaultWindow].
func NewMonitor(cfg MonitorConfig) *Monitor {
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.Window <= 0 {
		cfg.Window = DefaultWindow
	}
	return &Monitor{cfg: cfg}
}

// RunOnce discovers a server (if BaseURL is empty), runs a download test
// then an upload test, and returns the combined [Summary].
func (m *Monitor) RunOnce(ctx context.Context) (*Summary, error) {
	baseURL := m.cfg.BaseURL
	if baseURL == "" {
		if m.cfg.Locate == nil {
			m.cfg.Locate = locate.New(nil)
		}
		nearest, err := m.cfg.Locate.Nearest(ctx)
		if err != nil {
			return nil, err
		}
		baseURL = nearest
	}

	client, err := ndt7.FromURL(baseURL)
	if err != nil {
		return nil, err
	}

	download, err := m.runDirection(ctx, client, ndt7.DirectionDownload)
	if err != nil {
		return nil, err
	}
	upload, err := m.runDirection(ctx, client, ndt7.DirectionUpload)
	if err != nil {
		return nil, err
	}

	return &Summary{
		DownloadMbps: throughputMbps(download),
		UploadMbps:   throughputMbps(upload),
		Download:     download,
		Upload:       upload,
	}, nil
}

func (m *Monitor) runDirection(ctx context.Context, client *ndt7.Client, direction ndt7.Direction) (stats.GroupSummary, error) {
	pairs, err := client.Test(ctx, direction, m.cfg.MaxDuration)
	if err != nil {
		return stats.GroupSummary{}, err
	}

	agg := stats.NewNDT7Aggregator(m.cfg.Window)
	groupKey := string(direction)

	for p := range pairs {
		agg.Record(groupKey, p.Measurement)
		if m.cfg.Index != nil {
			m.cfg.Index.Post("ndt7", p.Measurement)
		}
	}

	summary, ok := agg.Summary(groupKey)
	if !ok {
		return stats.GroupSummary{}, nil
	}
	return summary, nil
}

// throughputMbps reports throughput in Mbps as 8*Rate*1e-6: Rate is
// BytesSent (upload, this client is the sender) or BytesReceived
// (download, this client is the receiver) from TCPInfo, falling back to
// AppInfo.NumBytes's rate when TCPInfo is unavailable.
func throughputMbps(s stats.GroupSummary) float64 {
	upload := s.Last.Measurement.Test == "upload"

	if s.TCPInfo != nil && s.TCPInfo.HasRate {
		rate := s.TCPInfo.RateBytesReceived
		if upload {
			rate = s.TCPInfo.RateBytesSent
		}
		return 8 * rate * 1e-6
	}
	if s.AppInfo != nil && s.AppInfo.HasRate {
		return 8 * s.AppInfo.RateNumBytes * 1e-6
	}
	return 0
}

// Run repeats RunOnce indefinitely until ctx is done, sleeping between
// runs for a random interval drawn from an exponential distribution with
// mean period, clamped to [0.1*period, 2.5*period].
func (m *Monitor) Run(ctx context.Context, period time.Duration, onSummary func(*Summary, error)) {
	for {
		summary, err := m.RunOnce(ctx)
		onSummary(summary, err)

		if ctx.Err() != nil {
			return
		}

		sleep := nextMonitorSleep(period)
		timer := m.cfg.Clock.NewTimer(sleep)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.Chan():
		}
	}
}

// nextMonitorSleep draws from Exp(mean=period) via inverse-CDF sampling
// and clamps to [0.1*period, 2.5*period].
func nextMonitorSleep(period time.Duration) time.Duration {
	// -ln(U) * mean, U uniform in (0, 1]; crypto/rand avoids a global PRNG
	// dependency for a single call site.
	u := randomUnitInterval()
	sleep := time.Duration(-math.Log(u) * float64(period))

	min := time.Duration(float64(period) * 0.1)
	max := time.Duration(float64(period) * 2.5)
	if sleep < min {
		return min
	}
	if sleep > max {
		return max
	}
	return sleep
}
