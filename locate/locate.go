// SPDX-License-Identifier: GPL-3.0-or-later
//
// Adapted from: bassosimone-nop httpconn.go (logging HTTP round trips).
//

// Package locate queries Measurement Lab's locate service for the
// nearest NDT7 server and its per-scheme endpoint URLs.
package locate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/netprobe-dev/aionet/internal/netpipe"
)

// DefaultEndpoint is the locate service this package queries by default.
const DefaultEndpoint = "https://locate.measurementlab.net/v2/nearest/ndt/ndt7"

// ErrNoResults is returned when the locate service responds successfully
// but names no candidate servers.
var ErrNoResults = errors.New("locate: no results returned")

// result mirrors one element of the locate service's "results" array.
type result struct {
	Machine string            `json:"machine"`
	URLs    map[string]string `json:"urls"`
}

type response struct {
	Results []result `json:"results"`
}

// Client queries the locate service over an instrumented [http.Client].
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// New returns a [Client] that logs every round trip through logger via
// [netpipe.LoggingTransport], following bassosimone-nop's HTTP
// instrumentation pattern.
func New(logger netpipe.SLogger) *Client {
	if logger == nil {
		logger = netpipe.DefaultSLogger()
	}
	cfg := netpipe.NewConfig()
	transport := netpipe.NewLoggingTransport(http.DefaultTransport, cfg, logger)
	return &Client{
		endpoint: DefaultEndpoint,
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   15 * time.Second,
		},
	}
}

// WithEndpoint overrides the locate service URL, e.g. for testing.
func (c *Client) WithEndpoint(endpoint string) *Client {
	c.endpoint = endpoint
	return c
}

// Nearest returns the base server URL (preferring wss) for the nearest
// available NDT7 server.
func (c *Client) Nearest(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint, nil)
	if err != nil {
		return "", err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("locate: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	var parsed response
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", err
	}
	if len(parsed.Results) == 0 {
		return "", ErrNoResults
	}

	return baseURLFromResult(parsed.Results[0])
}

// baseURLFromResult extracts a base "scheme://host" URL from one result's
// per-path URLs, preferring wss over ws.
func baseURLFromResult(r result) (string, error) {
	for _, key := range []string{"wss:///ndt/v7/download", "ws:///ndt/v7/download"} {
		if full, ok := r.URLs[key]; ok {
			return trimDownloadPath(full)
		}
	}
	return "", fmt.Errorf("locate: result for %q carries no download URL", r.Machine)
}

func trimDownloadPath(full string) (string, error) {
	const suffix = "/ndt/v7/download"
	idx := strings.Index(full, suffix)
	if idx < 0 {
		return "", fmt.Errorf("locate: malformed download URL %q", full)
	}
	base := full[:idx]
	if q := strings.Index(base, "?"); q >= 0 {
		base = base[:q]
	}
	return base, nil
}
