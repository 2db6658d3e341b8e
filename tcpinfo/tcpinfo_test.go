// SPDX-License-Identifier: GPL-3.0-or-later

package tcpinfo

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Read on a real loopback TCP connection either succeeds with plausible
// field values (Linux) or returns ErrUnsupported (every other platform).
func TestReadLoopback(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	accepted := make(chan net.Conn, 1)
	go func() {
		conn, err := ln.Accept()
		if err == nil {
			accepted <- conn
		}
	}()

	client, err := net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)
	defer client.Close()

	server := <-accepted
	defer server.Close()

	tcpConn, ok := client.(*net.TCPConn)
	require.True(t, ok)

	info, err := Read(tcpConn)
	if err != nil {
		assert.ErrorIs(t, err, ErrUnsupported)
		return
	}
	require.NotNil(t, info)
}
