package plan

import (
	"fmt"
	"sort"

	"github.com/nordvik-automation/modbus-core/internal/template"
)

// Default planner parameters. 100 registers stays comfortably inside
// the protocol limit of 125 per read; a tolerance of 2 merges spans
// separated by small documentation gaps without dragging in whole
// unrelated register banks.
const (
	DefaultMaxBlockSize   = 100
	DefaultMergeTolerance = 2
)

// Read is one contiguous register span fetched in a single transaction.
type Read struct {
	Slave uint8
	Table template.Table
	Start uint16
	Count uint16
}

// End returns the exclusive end address of the span.
func (r Read) End() uint32 {
	return uint32(r.Start) + uint32(r.Count)
}

// Contains reports whether the descriptor range [addr, addr+count) lies
// entirely inside the span.
func (r Read) Contains(addr, count uint16) bool {
	return uint32(addr) >= uint32(r.Start) && uint32(addr)+uint32(count) <= r.End()
}

// Options tunes the planner.
type Options struct {
	// MaxBlockSize caps the register count of one transaction.
	// Zero means DefaultMaxBlockSize.
	MaxBlockSize uint16

	// MergeTolerance is the largest gap, in registers, bridged when
	// merging neighbouring descriptors into one span.
	// Zero means no gap bridging; use DefaultMergeTolerance for the
	// stock behaviour.
	MergeTolerance uint16

	// DefaultSlave is the slave id for descriptors without an override.
	DefaultSlave uint8
}

type groupKey struct {
	slave uint8
	table template.Table
}

type interval struct {
	start uint32
	end   uint32 // exclusive
}

// Plan computes the read spans covering every descriptor. Binary and
// calculated descriptors carry no registers and must not be passed in.
//
// The result is deterministic: spans are ordered by slave, table, then
// start address, so identical inputs always produce identical plans.
func Plan(descs []*template.Descriptor, opts Options) ([]Read, error) {
	cap32 := uint32(opts.MaxBlockSize)
	if cap32 == 0 {
		cap32 = DefaultMaxBlockSize
	}
	tolerance := uint32(opts.MergeTolerance)

	groups := make(map[groupKey][]interval)
	for _, d := range descs {
		n := d.Registers()
		if uint32(n) > cap32 {
			return nil, fmt.Errorf("%w: %q needs %d registers, cap is %d",
				ErrDescriptorTooWide, d.UniqueID, n, cap32)
		}
		key := groupKey{slave: d.SlaveID(opts.DefaultSlave), table: d.Table}
		groups[key] = append(groups[key], interval{
			start: uint32(d.Address),
			end:   uint32(d.Address) + uint32(n),
		})
	}

	keys := make([]groupKey, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].slave != keys[j].slave {
			return keys[i].slave < keys[j].slave
		}
		return keys[i].table < keys[j].table
	})

	var reads []Read
	for _, key := range keys {
		spans, err := mergeGroup(groups[key], cap32, tolerance)
		if err != nil {
			return nil, fmt.Errorf("slave %d %s registers: %w", key.slave, key.table, err)
		}
		for _, s := range spans {
			reads = append(reads, Read{
				Slave: key.slave,
				Table: key.table,
				Start: uint16(s.start),
				Count: uint16(s.end - s.start),
			})
		}
	}

	if err := verify(descs, reads, opts.DefaultSlave); err != nil {
		return nil, err
	}
	return reads, nil
}

// mergeGroup coalesces the sorted intervals of one (slave, table) group.
// Overlapping descriptors are pre-merged unconditionally: two entities
// deriving from the same register always share a span. Adjacent
// spans merge while the gap fits the tolerance and the result fits the
// cap.
func mergeGroup(ivs []interval, cap32, tolerance uint32) ([]interval, error) {
	sort.Slice(ivs, func(i, j int) bool {
		if ivs[i].start != ivs[j].start {
			return ivs[i].start < ivs[j].start
		}
		return ivs[i].end < ivs[j].end
	})

	// Pass 1: overlapping or touching ranges collapse into one.
	premerged := make([]interval, 0, len(ivs))
	for _, iv := range ivs {
		if n := len(premerged); n > 0 && iv.start <= premerged[n-1].end {
			if iv.end > premerged[n-1].end {
				premerged[n-1].end = iv.end
			}
			continue
		}
		premerged = append(premerged, iv)
	}
	for _, iv := range premerged {
		if iv.end-iv.start > cap32 {
			return nil, fmt.Errorf("%w: overlapping descriptors span %d registers",
				ErrDescriptorTooWide, iv.end-iv.start)
		}
	}

	// Pass 2: bridge gaps within tolerance while staying under the cap.
	spans := make([]interval, 0, len(premerged))
	for _, iv := range premerged {
		if n := len(spans); n > 0 {
			last := &spans[n-1]
			gap := iv.start - last.end
			if gap <= tolerance && iv.end-last.start <= cap32 {
				last.end = iv.end
				continue
			}
		}
		spans = append(spans, iv)
	}
	return spans, nil
}

// verify checks the planner post-condition: every descriptor's range
// lies within exactly one span for its slave and table.
func verify(descs []*template.Descriptor, reads []Read, defaultSlave uint8) error {
	for _, d := range descs {
		covering := 0
		for _, r := range reads {
			if r.Slave != d.SlaveID(defaultSlave) || r.Table != d.Table {
				continue
			}
			if r.Contains(d.Address, d.Registers()) {
				covering++
			}
		}
		if covering != 1 {
			return fmt.Errorf("%w: %q covered by %d spans", ErrSpanOverlap, d.UniqueID, covering)
		}
	}
	return nil
}
