// SPDX-License-Identifier: GPL-3.0-or-later
//
// Adapted from: bassosimone-nop's Config/NewConfig pattern for
// constructor defaults.
//

package ndt7

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
)

// Client runs NDT7 download/upload tests against a server.
type Client struct {
	downloadURL string
	uploadURL   string
	dialer      *websocket.Dialer
}

// FromURL parses base (an http/https URL), forces the scheme to ws/wss,
// and constructs the per-direction endpoint URLs.
func FromURL(base string) (*Client, error) {
	u, err := url.Parse(base)
	if err != nil {
		return nil, err
	}

	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
		// already in WebSocket form
	default:
		u.Scheme = "wss"
	}

	download := *u
	download.Path = downloadPath
	upload := *u
	upload.Path = uploadPath

	return &Client{
		downloadURL: download.String(),
		uploadURL:   upload.String(),
		dialer: &websocket.Dialer{
			Subprotocols:     []string{Subprotocol},
			HandshakeTimeout: 10 * time.Second,
		},
	}, nil
}

// Test opens a WebSocket for direction with the NDT7 subprotocol and
// User-Agent header, and returns the lazy (direction, Measurement) pair
// sequence.
func (c *Client) Test(ctx context.Context, direction Direction, maxDuration time.Duration) (<-chan Pair, error) {
	target := c.downloadURL
	if direction == DirectionUpload {
		target = c.uploadURL
	}

	header := http.Header{}
	header.Set("User-Agent", UserAgent)

	conn, _, err := c.dialer.DialContext(ctx, target, header)
	if err != nil {
		return nil, err
	}

	return handleWebSocket(ctx, conn, direction, RoleClient, maxDuration), nil
}
