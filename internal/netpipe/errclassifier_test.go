// SPDX-License-Identifier: GPL-3.0-or-later

package netpipe

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultErrClassifier(t *testing.T) {
	assert.Equal(t, "", DefaultErrClassifier.Classify(nil))
	assert.NotEmpty(t, DefaultErrClassifier.Classify(errors.New("some unclassified failure")))
}

func TestErrClassifierFunc(t *testing.T) {
	fn := ErrClassifierFunc(func(err error) string {
		if err == nil {
			return ""
		}
		return "CUSTOM"
	})
	assert.Equal(t, "CUSTOM", fn.Classify(errors.New("x")))
}
