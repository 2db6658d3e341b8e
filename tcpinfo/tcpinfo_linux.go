//go:build linux

// SPDX-License-Identifier: GPL-3.0-or-later
//
// Adapted from: runZeroInc-sockstats pkg/tcpinfo/tcpinfo_linux.go
//

package tcpinfo

import (
	"syscall"

	"golang.org/x/sys/unix"
)

// Read snapshots the kernel TCP_INFO counters for conn, which must expose
// a SyscallConn (true of [*net.TCPConn] and anything wrapping one without
// hiding the raw connection).
func Read(conn syscallConner) (*Info, error) {
	raw, err := conn.SyscallConn()
	if err != nil {
		return nil, err
	}

	var kinfo *unix.TCPInfo
	var sockErr error
	controlErr := raw.Control(func(fd uintptr) {
		kinfo, sockErr = unix.GetsockoptTCPInfo(int(fd), unix.IPPROTO_TCP, unix.TCP_INFO)
	})
	if controlErr != nil {
		return nil, controlErr
	}
	if sockErr != nil {
		return nil, sockErr
	}

	return &Info{
		BusyTime:      kinfo.Busy_time,
		BytesAcked:    kinfo.Bytes_acked,
		BytesReceived: kinfo.Bytes_received,
		BytesSent:     kinfo.Bytes_sent,
		BytesRetrans:  kinfo.Bytes_retrans,
		MinRTT:        kinfo.Min_rtt,
		RTT:           kinfo.Rtt,
		RTTVar:        kinfo.Rttvar,
		RWndLimited:   kinfo.Rwnd_limited,
		SndBufLimited: kinfo.Sndbuf_limited,
	}, nil
}

// syscallConner is satisfied by [*net.TCPConn] and similar raw-capable
// connection types.
type syscallConner interface {
	SyscallConn() (syscall.RawConn, error)
}
