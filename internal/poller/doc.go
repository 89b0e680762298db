// Package poller drives the read-decode-publish cycle for one device
// instance.
//
// Each cycle executes the instance's planned reads, slices every
// descriptor's words out of its span buffer, decodes and maps them, and
// hands the results to the state sink. Failure isolation follows the
// descriptor boundary: a decode error marks that one entity unavailable
// for the cycle, a failed span read marks the span's entities
// unavailable, and neither touches the rest of the device. State
// self-heals on the next successful poll.
//
// Reload support: Swap publishes a freshly resolved instance atomically
// between cycles. A cycle in flight keeps the instance it started with.
package poller
