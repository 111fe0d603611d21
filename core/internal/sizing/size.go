// Package sizing provides overflow-checked size arithmetic.
package sizing

import "math"

// AddUint64 adds two uint64 values, returning (result, false) on overflow.
func AddUint64(a, b uint64) (uint64, bool) {
	sum := a + b
	if sum < a {
		return 0, false
	}
	return sum, true
}

// ToInt64 converts a uint64 to int64, returning overflowErr if it doesn't fit.
func ToInt64(size uint64, overflowErr error) (int64, error) {
	if size > uint64(math.MaxInt64) {
		return 0, overflowErr
	}
	return int64(size), nil
}

// Section returns the int64 offset and length of the byte range [off, off+n),
// returning overflowErr if the range end does not fit in an int64.
func Section(off uint64, n uint32, overflowErr error) (int64, int64, error) {
	end, ok := AddUint64(off, uint64(n))
	if !ok {
		return 0, 0, overflowErr
	}
	if _, err := ToInt64(end, overflowErr); err != nil {
		return 0, 0, err
	}
	return int64(off), int64(n), nil //nolint:gosec // bounded by the end check
}
