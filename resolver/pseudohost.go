// SPDX-License-Identifier: GPL-3.0-or-later

package resolver

import "context"

// faangHosts is the fixed expansion of the "faang" pseudo-host.
var faangHosts = []string{
	"facebook.com",
	"apple.com",
	"amazon.com",
	"netflix.com",
	"google.com",
}

// SpeedtestDiscoverer discovers nearby Speedtest.net servers. This module
// ships no implementation since Speedtest host discovery is an external
// collaborator; callers supply their own discoverer or leave it nil (in
// which case "speedtest" is resolved as a literal hostname instead of
// expanded).
type SpeedtestDiscoverer interface {
	// NearestHosts returns up to n hostnames of nearby Speedtest servers.
	NearestHosts(ctx context.Context, n int) ([]string, error)
}

// ExpandPseudoHost expands "faang" and "speedtest" into their constituent
// hostnames. Any other host is returned unchanged as a single-element
// slice. speedtest expands via discoverer (10 nearest servers); if
// discoverer is nil, "speedtest" is treated as a literal hostname.
func ExpandPseudoHost(ctx context.Context, host string, discoverer SpeedtestDiscoverer) ([]string, error) {
	switch host {
	case "faang":
		return append([]string(nil), faangHosts...), nil
	case "speedtest":
		if discoverer == nil {
			return []string{host}, nil
		}
		return discoverer.NearestHosts(ctx, 10)
	default:
		return []string{host}, nil
	}
}
