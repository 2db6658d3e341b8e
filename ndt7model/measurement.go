// SPDX-License-Identifier: GPL-3.0-or-later
//
// Adapted from: m-lab-msak pkg/ndtm/results (Measurement/WireMeasurement
// field naming) and the NDT7 protocol spec.
//

// Package ndt7model defines the wire types exchanged over an NDT7
// WebSocket session: the Measurement frame and its sub-records.
package ndt7model

// Origin identifies which side of the session produced a Measurement.
type Origin string

const (
	OriginClient Origin = "client"
	OriginServer Origin = "server"
)

// Kind names the test direction a Measurement describes.
type Kind string

const (
	KindDownload Kind = "download"
	KindUpload   Kind = "upload"
)

// AppInfo carries application-level byte counters, independent of any
// kernel TCP statistics.
type AppInfo struct {
	ElapsedTime int64 `json:"ElapsedTime,omitempty"`
	NumBytes    int64 `json:"NumBytes,omitempty"`
}

// ConnectionInfo names the two endpoints of a session; only present on
// Measurements produced by the server role.
type ConnectionInfo struct {
	Client string `json:"Client"`
	Server string `json:"Server"`
}

// TCPInfo mirrors the subset of kernel TCP_INFO counters this toolkit
// samples, matching the exact key names of the NDT7 wire protocol.
type TCPInfo struct {
	BusyTime      int64 `json:"BusyTime,omitempty"`
	BytesAcked    int64 `json:"BytesAcked,omitempty"`
	BytesReceived int64 `json:"BytesReceived,omitempty"`
	BytesSent     int64 `json:"BytesSent,omitempty"`
	BytesRetrans  int64 `json:"BytesRetrans,omitempty"`
	ElapsedTime   int64 `json:"ElapsedTime,omitempty"`
	MinRTT        int64 `json:"MinRTT,omitempty"`
	RTT           int64 `json:"RTT,omitempty"`
	RTTVar        int64 `json:"RTTVar,omitempty"`
	RWndLimited   int64 `json:"RWndLimited,omitempty"`
	SndBufLimited int64 `json:"SndBufLimited,omitempty"`
}

// Measurement is one NDT7 JSON frame, sent over the WebSocket text channel
// roughly every 100ms during a session.
type Measurement struct {
	AppInfo        *AppInfo        `json:"AppInfo,omitempty"`
	ConnectionInfo *ConnectionInfo `json:"ConnectionInfo,omitempty"`
	TCPInfo        *TCPInfo        `json:"TCPInfo,omitempty"`
	Origin         Origin          `json:"Origin,omitempty"`
	Test           Kind            `json:"Test,omitempty"`
}
