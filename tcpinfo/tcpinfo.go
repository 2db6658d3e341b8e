// SPDX-License-Identifier: GPL-3.0-or-later
//
// Adapted from: runZeroInc-sockstats pkg/tcpinfo/tcpinfo_linux.go
// (per-GOOS file layout and the subset of kernel fields read).
//

// Package tcpinfo snapshots kernel TCP statistics for a connected socket
// via getsockopt(IPPROTO_TCP, TCP_INFO).
package tcpinfo

import "errors"

// ErrUnsupported is returned on platforms that do not expose TCP_INFO
// (anything other than Linux). On Linux, a connection that is not a TCP
// socket yields the getsockopt error instead.
var ErrUnsupported = errors.New("tcpinfo: TCP_INFO is not supported on this platform or connection")

// Info is the subset of kernel TCP_INFO fields this module consumes,
// matching the field names used by the NDT7 Measurement TCPInfo sub-record.
type Info struct {
	BusyTime      uint64
	BytesAcked    uint64
	BytesReceived uint64
	BytesSent     uint64
	BytesRetrans  uint32
	MinRTT        uint32
	RTT           uint32
	RTTVar        uint32
	RWndLimited   uint32
	SndBufLimited uint32
}
