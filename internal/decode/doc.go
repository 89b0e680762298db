// Package decode converts raw register words into typed values and maps
// them to their presentation form.
//
// Decoding follows a fixed pipeline per descriptor:
//
//  1. Word reorder: little-endian byte order reverses the bytes within
//     each word; the word-swap flag additionally reverses word order;
//     big/big (the default) reorders nothing.
//  2. Assembly: the reordered words concatenate into one unsigned
//     integer, most significant word first.
//  3. Sentinel check: a protocol-reserved "unavailable" bit pattern is
//     detected before any scaling and surfaces as ErrUnavailable, never
//     as a plausible-looking number.
//  4. Bit pipeline: mask, then range extraction, then shift, then
//     rotate, in that order. bit_position is shorthand for a one-bit
//     range.
//  5. Type interpretation: two's complement for signed integers,
//     IEEE-754 for floats, character decoding for strings, nonzero test
//     for booleans.
//  6. Numeric post-processing: value*scale*multiplier + offset. Full
//     precision is retained internally; rounding to the descriptor's
//     precision happens only at the presentation boundary.
//
// Composite sum descriptors (sum_scale) bypass steps 1-5: each
// (offset, scale) term reads one word from the buffer independently and
// the scaled terms sum.
//
// Every function here is pure and stateless: decoding is safe to run
// concurrently across descriptors, spans and devices, and every failure
// returns synchronously as an error value scoped to one descriptor.
package decode
