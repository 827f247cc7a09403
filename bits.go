package tlsf

import "math/bits"

// ilog2 returns floor(log2(x)) for x > 0. Callers must never pass 0.
func ilog2(x uint32) uint32 {
	return uint32(bits.Len32(x)) - 1
}

// ffs32 returns the index of the lowest set bit in x, or ok=false if x is 0.
// This backs the "find-first-set" bit scan the segregation map needs to
// locate the lowest non-empty SL within an FL class.
func ffs32(x uint32) (idx uint32, ok bool) {
	if x == 0 {
		return 0, false
	}
	return uint32(bits.TrailingZeros32(x)), true
}

// fls32 returns the index of the highest set bit in x, or ok=false if x is 0.
// Used by avail_space to find the highest-indexed non-empty class.
func fls32(x uint32) (idx uint32, ok bool) {
	if x == 0 {
		return 0, false
	}
	return uint32(bits.Len32(x)) - 1, true
}
