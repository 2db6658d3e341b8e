// SPDX-License-Identifier: GPL-3.0-or-later

package resolver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveLiteralAddress(t *testing.T) {
	r := New()
	addrs, err := r.Resolve(context.Background(), "127.0.0.1")
	require.NoError(t, err)
	require.Len(t, addrs, 1)
	assert.Equal(t, "127.0.0.1", addrs[0].String())
}

func TestResolveLiteralIPv6(t *testing.T) {
	r := New()
	addrs, err := r.Resolve(context.Background(), "::1")
	require.NoError(t, err)
	require.Len(t, addrs, 1)
	assert.True(t, addrs[0].Is6())
}

func TestExpandPseudoHostFaang(t *testing.T) {
	hosts, err := ExpandPseudoHost(context.Background(), "faang", nil)
	require.NoError(t, err)
	assert.Len(t, hosts, 5)
	assert.Contains(t, hosts, "google.com")
}

func TestExpandPseudoHostRegularName(t *testing.T) {
	hosts, err := ExpandPseudoHost(context.Background(), "example.com", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"example.com"}, hosts)
}

func TestExpandPseudoHostSpeedtestWithoutDiscoverer(t *testing.T) {
	hosts, err := ExpandPseudoHost(context.Background(), "speedtest", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"speedtest"}, hosts)
}

type fakeDiscoverer struct{ hosts []string }

func (f *fakeDiscoverer) NearestHosts(ctx context.Context, n int) ([]string, error) {
	return f.hosts, nil
}

func TestExpandPseudoHostSpeedtestWithDiscoverer(t *testing.T) {
	d := &fakeDiscoverer{hosts: []string{"a.speedtest.net", "b.speedtest.net"}}
	hosts, err := ExpandPseudoHost(context.Background(), "speedtest", d)
	require.NoError(t, err)
	assert.Equal(t, d.hosts, hosts)
}
