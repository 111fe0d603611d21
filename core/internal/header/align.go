package header

import (
	"fmt"

	"github.com/meigma/arh/core/internal/archtype"
)

// AlignUp rounds x up to the next multiple of align, which must be a power of two.
func AlignUp(x, align uint64) uint64 {
	return (x + align - 1) &^ (align - 1)
}

// effectiveAlignment treats 0 as 1 and rejects values that are not powers of two.
func effectiveAlignment(a uint32) (uint64, error) {
	if a == 0 {
		return 1, nil
	}
	if a&(a-1) != 0 {
		return 0, fmt.Errorf("%w: alignment %d is not a power of two", archtype.ErrFormat, a)
	}
	return uint64(a), nil
}
