// SPDX-License-Identifier: GPL-3.0-or-later

package ndt7

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromURLSchemeMapping(t *testing.T) {
	c, err := FromURL("https://ndt.example.org")
	require.NoError(t, err)
	assert.Equal(t, "wss://ndt.example.org/ndt/v7/download", c.downloadURL)
	assert.Equal(t, "wss://ndt.example.org/ndt/v7/upload", c.uploadURL)

	c, err = FromURL("http://ndt.example.org")
	require.NoError(t, err)
	assert.Equal(t, "ws://ndt.example.org/ndt/v7/download", c.downloadURL)
	assert.Equal(t, "ws://ndt.example.org/ndt/v7/upload", c.uploadURL)
}

func TestFromURLRejectsInvalid(t *testing.T) {
	_, err := FromURL("://bad")
	assert.Error(t, err)
}
