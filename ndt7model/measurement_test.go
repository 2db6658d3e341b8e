// SPDX-License-Identifier: GPL-3.0-or-later

package ndt7model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMeasurementJSONKeyNames(t *testing.T) {
	m := Measurement{
		AppInfo:        &AppInfo{ElapsedTime: 100000, NumBytes: 1024},
		ConnectionInfo: &ConnectionInfo{Client: "1.2.3.4:1234", Server: "[::1]:443"},
		TCPInfo: &TCPInfo{
			BusyTime: 1, BytesAcked: 2, BytesReceived: 3, BytesSent: 4,
			BytesRetrans: 5, ElapsedTime: 100000, MinRTT: 6, RTT: 7, RTTVar: 8,
			RWndLimited: 9, SndBufLimited: 10,
		},
		Origin: OriginServer,
		Test:   KindDownload,
	}

	data, err := json.Marshal(m)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))

	assert.Equal(t, "server", raw["Origin"])
	assert.Equal(t, "download", raw["Test"])

	appInfo := raw["AppInfo"].(map[string]any)
	assert.Equal(t, float64(1024), appInfo["NumBytes"])
	assert.Equal(t, float64(100000), appInfo["ElapsedTime"])

	tcpInfo := raw["TCPInfo"].(map[string]any)
	assert.Equal(t, float64(2), tcpInfo["BytesAcked"])
	assert.Equal(t, float64(4), tcpInfo["BytesSent"])
}

func TestMeasurementRoundTrip(t *testing.T) {
	want := Measurement{
		AppInfo: &AppInfo{ElapsedTime: 50000, NumBytes: 42},
		Origin:  OriginClient,
		Test:    KindUpload,
	}
	data, err := json.Marshal(want)
	require.NoError(t, err)

	var got Measurement
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, want, got)
}
