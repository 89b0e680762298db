package plan

import "errors"

// Planning errors. Both are configuration defects and fatal at setup.
var (
	// ErrDescriptorTooWide is returned when one descriptor occupies more
	// registers than a single transaction may carry.
	ErrDescriptorTooWide = errors.New("plan: descriptor wider than transaction cap")

	// ErrSpanOverlap is returned when the computed spans violate the
	// post-condition that every descriptor's range lies within exactly
	// one span for its slave and table.
	ErrSpanOverlap = errors.New("plan: descriptor range not covered by exactly one span")
)
