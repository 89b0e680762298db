// Package instance assembles one configured device: the resolved
// descriptor set, the register read plan, and the decode entry point
// the host calls per descriptor.
//
// An Instance is immutable after New returns. Reload never mutates an
// existing Instance; it derives a fresh one from the same template and
// the (possibly changed) selections, and the caller swaps the active
// pointer between poll cycles. An in-flight read against the previous
// plan therefore always completes against a consistent Instance.
package instance
