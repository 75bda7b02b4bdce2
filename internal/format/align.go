package format

import "math"

// Alignment utilities. All boundaries are powers of two.

// AlignUp rounds n up to a multiple of align. align must be a power of two.
// ok is false when the rounded value would overflow int.
//
// Example:
//
//	AlignUp(1, 4096)    = 4096, true
//	AlignUp(4096, 4096) = 4096, true
//	AlignUp(4097, 4096) = 8192, true
func AlignUp(n, align int) (int, bool) {
	mask := align - 1
	if n > math.MaxInt-mask {
		return 0, false
	}
	return (n + mask) & ^mask, true
}

// IsPow2 reports whether n is a positive power of two.
func IsPow2(n int) bool {
	return n > 0 && n&(n-1) == 0
}

// Log2 returns the base-2 logarithm of a power of two.
func Log2(n int) int {
	shift := 0
	for n > 1 {
		n >>= 1
		shift++
	}
	return shift
}

// FreeUnits returns how many whole boundary units fit in avail bytes. This is
// the free-space estimate pools use to order their Blocks.
//
// Example (unit 4096):
//
//	FreeUnits(4095, 4096) = 0
//	FreeUnits(4096, 4096) = 1
//	FreeUnits(8191, 4096) = 1
func FreeUnits(avail, unit int) int {
	if avail <= 0 {
		return 0
	}
	return avail / unit
}
