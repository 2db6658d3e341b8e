// SPDX-License-Identifier: GPL-3.0-or-later

package sink

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIndexSinkPostDrainsOnAcquisitionClose(t *testing.T) {
	var received atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/ping/_doc", r.URL.Path)
		received.Add(1)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	s := New(srv.URL, nil)

	func() {
		acq := s.Acquire()
		defer acq.Close()
		s.Post("ping", map[string]any{"status": "SUCCESS"})
		s.Post("ping", map[string]any{"status": "TIMEOUT"})
	}()

	assert.Equal(t, int32(2), received.Load())
}

func TestIndexSinkPostMarshalFailureDoesNotPanic(t *testing.T) {
	s := New("http://example.invalid", nil)
	assert.NotPanics(t, func() {
		s.Post("ping", map[string]any{"bad": make(chan int)})
		s.Acquire().Close()
	})
}
