// SPDX-License-Identifier: GPL-3.0-or-later
//
// These tests exercise a real Engine over loopback dgram-ICMP sockets,
// the same assumption tomc603-pinger's tests make: the process must be
// allowed to open "udp4"/"udp6" ICMP sockets (Linux: net.ipv4.ping_group_range
// covering the running group, or CAP_NET_RAW).
//

package icmpengine

import (
	"context"
	"net/netip"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPingUnsupportedAddress(t *testing.T) {
	e, err := New(nil)
	require.NoError(t, err)
	defer e.Close()

	_, err = e.Ping(context.Background(), netip.Addr{}, PingOptions{})
	assert.ErrorIs(t, err, ErrUnsupportedAddress)
}

func TestPingLoopbackSuccess(t *testing.T) {
	e, err := New(nil)
	require.NoError(t, err)
	defer e.Close()

	handle, err := e.Ping(context.Background(), netip.MustParseAddr("127.0.0.1"), PingOptions{
		Timeout: 2 * time.Second,
		Labels:  Labels{"host": "localhost"},
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	outcome, err := handle.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, outcome.Status)
	assert.False(t, outcome.End.Before(outcome.Start))
	assert.Equal(t, "localhost", outcome.Labels["host"])
}

func TestPingBlackholeTimesOut(t *testing.T) {
	e, err := New(nil)
	require.NoError(t, err)
	defer e.Close()

	// TEST-NET-1 (RFC 5737): reserved for documentation, never routed.
	handle, err := e.Ping(context.Background(), netip.MustParseAddr("192.0.2.1"), PingOptions{
		Timeout: 200 * time.Millisecond,
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	start := time.Now()
	outcome, err := handle.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, StatusTimeout, outcome.Status)
	assert.GreaterOrEqual(t, time.Since(start), 150*time.Millisecond)
}

func TestCloseTransitionsPendingToCanceled(t *testing.T) {
	e, err := New(nil)
	require.NoError(t, err)

	handle, err := e.Ping(context.Background(), netip.MustParseAddr("192.0.2.1"), PingOptions{
		Timeout: 10 * time.Second,
	})
	require.NoError(t, err)

	require.NoError(t, e.Close())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	outcome, err := handle.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, StatusCanceled, outcome.Status)
}
