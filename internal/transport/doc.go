// Package transport executes planned register reads against a modbus
// endpoint using goburrow/modbus.
//
// The adapter is deliberately thin: one attempt per call, no retry
// loops, no scheduling. Transport-level resilience belongs to the
// caller (the poller simply marks a span's entities unavailable for the
// cycle and tries again next tick). Both TCP and RTU endpoints are
// supported; the wire format the planner and decoder see is identical.
package transport
