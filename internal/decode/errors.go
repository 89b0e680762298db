package decode

import "errors"

// Decode errors are scoped to one descriptor and never fatal to the
// device: the affected entity becomes unavailable for the cycle while
// its siblings in the same span decode normally.
var (
	// ErrUnavailable is returned when the raw words carry the
	// protocol-reserved sentinel meaning "no data".
	ErrUnavailable = errors.New("decode: sentinel value, reading unavailable")

	// ErrShortBuffer is returned when fewer words arrive than the
	// descriptor occupies.
	ErrShortBuffer = errors.New("decode: short register buffer")

	// ErrInvalidEncoding is returned when string bytes do not form valid
	// text under the descriptor's encoding.
	ErrInvalidEncoding = errors.New("decode: invalid string encoding")

	// ErrTypeMismatch is returned when a value cannot be represented in
	// the descriptor's data type, or an operation is applied to an
	// incompatible type.
	ErrTypeMismatch = errors.New("decode: type mismatch")
)
