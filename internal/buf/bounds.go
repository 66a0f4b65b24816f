// Package buf holds overflow-safe arithmetic for frame and byte offsets.
package buf

import (
	"fmt"
	"math"
	"math/bits"
)

// AddOverflowSafe adds a and b, returning ok = false when the result would overflow uint64.
func AddOverflowSafe(a, b uint64) (uint64, bool) {
	sum, carry := bits.Add64(a, b, 0)
	return sum, carry == 0
}

// MulOverflowSafe multiplies a and b, returning ok = false when the result would overflow uint64.
// This is what keeps frame * FrameSize address computations honest.
func MulOverflowSafe(a, b uint64) (uint64, bool) {
	hi, lo := bits.Mul64(a, b)
	return lo, hi == 0
}

// CeilDiv returns ceil(a / b). b must be non-zero.
func CeilDiv(a, b uint64) uint64 {
	q := a / b
	if a%b != 0 {
		q++
	}
	return q
}

// CheckSpan validates that count units of unitSize bytes, starting at unit
// index first, fit in a buffer of bufLen bytes. Returns the byte offsets
// [start, end) if valid, or an error describing the failure.
//
//	start, end, err := buf.CheckSpan(len(mem), uint64(f), n, pmm.FrameSize)
//	if err != nil {
//	    return fmt.Errorf("span: %w", err)
//	}
func CheckSpan(bufLen int, first, count, unitSize uint64) (int, int, error) {
	start, ok := MulOverflowSafe(first, unitSize)
	if !ok {
		return 0, 0, fmt.Errorf("overflow: first=%d * unit=%d", first, unitSize)
	}
	size, ok := MulOverflowSafe(count, unitSize)
	if !ok {
		return 0, 0, fmt.Errorf("overflow: count=%d * unit=%d", count, unitSize)
	}
	end, ok := AddOverflowSafe(start, size)
	if !ok {
		return 0, 0, fmt.Errorf("overflow: start=%d + size=%d", start, size)
	}
	if end > uint64(bufLen) || end > math.MaxInt {
		return 0, 0, fmt.Errorf("bounds: end=%d > len=%d", end, bufLen)
	}
	return int(start), int(end), nil
}
