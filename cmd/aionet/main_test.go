// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRunNoArgs(t *testing.T) {
	assert.Error(t, run(nil))
}

func TestRunUnknownSubcommand(t *testing.T) {
	assert.Error(t, run([]string{"bogus"}))
}
