// SPDX-License-Identifier: GPL-3.0-or-later

package resolver

import "net/netip"

// Family names an IP address family.
type Family int

const (
	FamilyUnknown Family = iota
	FamilyIPv4
	FamilyIPv6
)

// ClassifyFamily returns the address family of addr, used by the ICMP
// engine to pick which per-family socket to send a probe on.
func ClassifyFamily(addr netip.Addr) Family {
	switch {
	case addr.Is4() || addr.Is4In6():
		return FamilyIPv4
	case addr.Is6():
		return FamilyIPv6
	default:
		return FamilyUnknown
	}
}
