package transport

import "errors"

// Domain errors for the transport package.
var (
	// ErrUnsupportedMode is returned for connection modes other than
	// tcp and rtu.
	ErrUnsupportedMode = errors.New("transport: unsupported connection mode")

	// ErrInputWrite is returned when a write targets the read-only
	// input register table.
	ErrInputWrite = errors.New("transport: input registers are read-only")

	// ErrShortResponse is returned when the device answers with fewer
	// bytes than the requested register count implies.
	ErrShortResponse = errors.New("transport: short response")
)
