// Package plan computes the minimal set of contiguous register reads
// covering a device instance's descriptors.
//
// Descriptors scatter across the address space; reading each one in its
// own transaction wastes the bus. The planner groups descriptors by
// (slave id, register table), sorts them by address, and merges
// neighbours into spans while the gap between them stays within the
// merge tolerance and the span stays under the per-transaction register
// cap. A handful of wasted filler registers inside a span is cheaper
// than an extra transaction.
//
// Planning runs once per device setup and performs no I/O. The returned
// reads are treated as immutable and shared read-only across poll
// cycles; reconfiguration replaces the whole plan.
package plan
