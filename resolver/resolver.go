// SPDX-License-Identifier: GPL-3.0-or-later
//
// Adapted from: bassosimone-nop connect.go, config.go (a narrow interface
// plus a stdlib-backed default implementation, injectable for testing).
//

// Package resolver provides hostname-to-address resolution, IP family
// classification, pseudo-host expansion, and the time source used by the
// rest of this module.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"time"
)

// ErrResolve wraps a resolution failure with the offending hostname, so
// callers can report it with context.
var ErrResolve = errors.New("resolver: resolution failed")

// Resolver resolves a hostname to the set of IP addresses it owns.
type Resolver interface {
	Resolve(ctx context.Context, host string) ([]netip.Addr, error)
}

// New returns the default [Resolver], backed by [*net.Resolver].
func New() Resolver {
	return &stdResolver{inner: net.DefaultResolver}
}

type stdResolver struct {
	inner *net.Resolver
}

// Resolve implements [Resolver].
func (r *stdResolver) Resolve(ctx context.Context, host string) ([]netip.Addr, error) {
	if addr, err := netip.ParseAddr(host); err == nil {
		return []netip.Addr{addr}, nil
	}

	ipAddrs, err := r.inner.LookupIP(ctx, "ip", host)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrResolve, host, err)
	}

	addrs := make([]netip.Addr, 0, len(ipAddrs))
	for _, ip := range ipAddrs {
		if addr, ok := netip.AddrFromSlice(ip); ok {
			addrs = append(addrs, addr.Unmap())
		}
	}
	if len(addrs) == 0 {
		return nil, fmt.Errorf("%w: %s: no addresses", ErrResolve, host)
	}
	return addrs, nil
}

// TimeNow is the time source used throughout this module, overridable in
// tests the same way [Config.TimeNow] is.
var TimeNow = time.Now
