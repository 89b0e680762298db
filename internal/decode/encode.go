package decode

import (
	"fmt"
	"math"

	"github.com/nordvik-automation/modbus-core/internal/template"
)

// EncodeNumber converts an engineering value back into register words
// for write-back: the numeric post-processing inverts, the result packs
// into count words most significant first, and the descriptor's word
// layout applies in reverse. Byte reorder and word swap are their own
// inverses, so the wire layout matches what Decode expects.
func EncodeNumber(d *template.Descriptor, value float64) ([]uint16, error) {
	scale := d.Scale.Or(1) * d.Multiplier.Or(1)
	if scale == 0 {
		return nil, fmt.Errorf("%w: zero scale on %q", ErrTypeMismatch, d.UniqueID)
	}
	raw := (value - d.Offset.Or(0)) / scale

	var bits uint64
	switch d.DataType {
	case template.TypeFloat32:
		bits = uint64(math.Float32bits(float32(raw)))
	case template.TypeFloat64:
		bits = math.Float64bits(raw)
	default:
		if !d.DataType.Integer() {
			return nil, fmt.Errorf("%w: cannot encode %q as number", ErrTypeMismatch, d.DataType)
		}
		rounded := math.Round(raw)
		if d.DataType.Signed() {
			if err := checkSignedRange(rounded, d.Count); err != nil {
				return nil, fmt.Errorf("%q: %w", d.UniqueID, err)
			}
			bits = uint64(int64(rounded)) & widthMask(uint8(d.Count*16))
		} else {
			if rounded < 0 || rounded > float64(widthMask(uint8(d.Count*16))) {
				return nil, fmt.Errorf("%w: %v out of range for %s", ErrTypeMismatch, value, d.DataType)
			}
			bits = uint64(rounded)
		}
	}

	words := make([]uint16, d.Count)
	for i := int(d.Count) - 1; i >= 0; i-- {
		words[i] = uint16(bits)
		bits >>= 16
	}
	return reorder(d, words), nil
}

// EncodeString converts text into register words for text controls:
// bytes per the descriptor's encoding, NUL padded to the register span.
func EncodeString(d *template.Descriptor, s string) ([]uint16, error) {
	var buf []byte
	switch d.Encoding {
	case template.EncodingASCII:
		for _, r := range s {
			if r > 0x7F {
				return nil, fmt.Errorf("%w: %q is not ASCII", ErrInvalidEncoding, r)
			}
		}
		buf = []byte(s)
	case template.EncodingLatin1:
		for _, r := range s {
			if r > 0xFF {
				return nil, fmt.Errorf("%w: %q does not fit Latin-1", ErrInvalidEncoding, r)
			}
			buf = append(buf, byte(r))
		}
	default: // utf-8
		buf = []byte(s)
	}

	if max := int(d.Count) * 2; len(buf) > max {
		return nil, fmt.Errorf("%w: %d bytes exceed %d registers", ErrTypeMismatch, len(buf), d.Count)
	}

	words := make([]uint16, d.Count)
	for i := range words {
		var hi, lo byte
		if 2*i < len(buf) {
			hi = buf[2*i]
		}
		if 2*i+1 < len(buf) {
			lo = buf[2*i+1]
		}
		words[i] = uint16(hi)<<8 | uint16(lo)
	}
	return reorder(d, words), nil
}

func checkSignedRange(v float64, count uint16) error {
	limit := math.Ldexp(1, int(count)*16-1)
	if v < -limit || v >= limit {
		return fmt.Errorf("%w: %v out of signed %d-bit range", ErrTypeMismatch, v, count*16)
	}
	return nil
}
