// SPDX-License-Identifier: GPL-3.0-or-later

package locate

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNearestPrefersWSS(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"results": [
				{
					"machine": "mlab1.lga0t.measurement-lab.org",
					"urls": {
						"ws:///ndt/v7/download": "ws://mlab1.lga0t.measurement-lab.org/ndt/v7/download",
						"wss:///ndt/v7/download": "wss://mlab1.lga0t.measurement-lab.org/ndt/v7/download",
						"ws:///ndt/v7/upload": "ws://mlab1.lga0t.measurement-lab.org/ndt/v7/upload",
						"wss:///ndt/v7/upload": "wss://mlab1.lga0t.measurement-lab.org/ndt/v7/upload"
					}
				}
			]
		}`))
	}))
	defer srv.Close()

	c := New(nil).WithEndpoint(srv.URL)
	base, err := c.Nearest(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "wss://mlab1.lga0t.measurement-lab.org", base)
}

func TestNearestNoResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"results": []}`))
	}))
	defer srv.Close()

	c := New(nil).WithEndpoint(srv.URL)
	_, err := c.Nearest(t.Context())
	assert.ErrorIs(t, err, ErrNoResults)
}
