// SPDX-License-Identifier: GPL-3.0-or-later

package orchestrate

import (
	"crypto/rand"
	"encoding/binary"
	"math"
)

// randomUnitInterval returns a uniform random float64 in (0, 1], suitable
// as the U in inverse-CDF exponential sampling.
func randomUnitInterval() float64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 1 // degrade to "no randomness" rather than panic
	}
	// 53 bits of mantissa precision, mapped to (0, 1].
	v := binary.BigEndian.Uint64(buf[:]) >> 11
	u := float64(v) / float64(uint64(1)<<53)
	if u <= 0 {
		return math.SmallestNonzeroFloat64
	}
	return u
}
