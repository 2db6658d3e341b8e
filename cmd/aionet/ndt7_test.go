// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netprobe-dev/aionet/ndt7"
	"github.com/netprobe-dev/aionet/orchestrate"
)

func TestParseNDT7RunArgsDefaults(t *testing.T) {
	ra, err := parseNDT7RunArgs(nil)
	require.NoError(t, err)
	assert.Equal(t, "", ra.baseURL)
	assert.Equal(t, orchestrate.DefaultWindow, ra.window)
	assert.Equal(t, "", ra.elastic)
}

func TestParseNDT7RunArgsWithURLAndFlags(t *testing.T) {
	ra, err := parseNDT7RunArgs([]string{"-W", "5s", "--elastic", "http://es", "https://ndt.example.org"})
	require.NoError(t, err)
	assert.Equal(t, "https://ndt.example.org", ra.baseURL)
	assert.Equal(t, 5*time.Second, ra.window)
	assert.Equal(t, "http://es", ra.elastic)
}

func TestParseNDT7MonitorArgsDefaults(t *testing.T) {
	ma, err := parseNDT7MonitorArgs(nil)
	require.NoError(t, err)
	assert.Equal(t, orchestrate.DefaultWindow*20, ma.period)
}

func TestParseNDT7MonitorArgsPeriod(t *testing.T) {
	ma, err := parseNDT7MonitorArgs([]string{"--period", "1m"})
	require.NoError(t, err)
	assert.Equal(t, time.Minute, ma.period)
}

func TestParseNDT7ServerArgsDefaultAddr(t *testing.T) {
	sa, err := parseNDT7ServerArgs(nil)
	require.NoError(t, err)
	assert.Equal(t, ndt7.DefaultListenAddr, sa.addr)
}

func TestParseNDT7ServerArgsExplicitAddr(t *testing.T) {
	sa, err := parseNDT7ServerArgs([]string{"0.0.0.0:9090"})
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:9090", sa.addr)
}

func TestRunNDT7UnknownSubcommand(t *testing.T) {
	err := runNDT7(nil, []string{"bogus"}) //nolint:staticcheck // dispatch only inspects args[0]
	assert.Error(t, err)
}

func TestRunNDT7NoSubcommand(t *testing.T) {
	err := runNDT7(nil, nil)
	assert.Error(t, err)
}
