// SPDX-License-Identifier: GPL-3.0-or-later

package orchestrate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/netprobe-dev/aionet/ndt7model"
	"github.com/netprobe-dev/aionet/stats"
)

func TestThroughputMbpsPrefersTCPInfo(t *testing.T) {
	s := stats.GroupSummary{
		Last:    stats.Sample{Measurement: ndt7model.Measurement{Test: ndt7model.KindUpload}},
		TCPInfo: &stats.TCPInfoDelta{HasRate: true, RateBytesSent: 125_000, RateBytesReceived: 1000},
		AppInfo: &stats.AppInfoDelta{HasRate: true, RateNumBytes: 1},
	}
	assert.InDelta(t, 1.0, throughputMbps(s), 0.001) // 8*125000*1e-6 = 1.0 Mbps
}

func TestThroughputMbpsDownloadUsesBytesReceived(t *testing.T) {
	s := stats.GroupSummary{
		Last:    stats.Sample{Measurement: ndt7model.Measurement{Test: ndt7model.KindDownload}},
		TCPInfo: &stats.TCPInfoDelta{HasRate: true, RateBytesSent: 1000, RateBytesReceived: 125_000},
	}
	assert.InDelta(t, 1.0, throughputMbps(s), 0.001)
}

func TestThroughputMbpsFallsBackToAppInfo(t *testing.T) {
	s := stats.GroupSummary{
		AppInfo: &stats.AppInfoDelta{HasRate: true, RateNumBytes: 125_000},
	}
	assert.InDelta(t, 1.0, throughputMbps(s), 0.001)
}

func TestThroughputMbpsZeroWithoutRates(t *testing.T) {
	assert.Equal(t, 0.0, throughputMbps(stats.GroupSummary{}))
}

func TestNextMonitorSleepClamped(t *testing.T) {
	period := 10 * time.Second
	for i := 0; i < 100; i++ {
		sleep := nextMonitorSleep(period)
		assert.GreaterOrEqual(t, sleep, time.Duration(float64(period)*0.1))
		assert.LessOrEqual(t, sleep, time.Duration(float64(period)*2.5))
	}
}
