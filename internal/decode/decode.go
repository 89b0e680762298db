package decode

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/nordvik-automation/modbus-core/internal/template"
)

// Sentinel bit patterns meaning "reading unavailable". The 32-bit
// pattern is the max positive int32, reserved by several inverter
// families; descriptors may override via their sentinel field.
const (
	Sentinel32 = 0x7FFFFFFF
)

// Kind discriminates the typed result of a decode.
type Kind int

const (
	KindNumber Kind = iota
	KindString
	KindBool
)

// Value is one decoded reading: the typed scalar plus the pre-mapping
// integer, which downstream consumers need for bitwise use (flags
// tables, bit-addressed schedule registers).
type Value struct {
	Kind Kind

	// Num is the post-scaling numeric value at full precision.
	Num float64

	Str  string
	Bool bool

	// Raw is the assembled integer after the bit pipeline and before
	// scaling. Zero for strings and composite sums.
	Raw uint64
}

// Decode converts raw register words into a typed value per the
// descriptor's pipeline. The words slice must cover the descriptor's
// full register span; extra trailing words are ignored.
func Decode(d *template.Descriptor, words []uint16) (Value, error) {
	need := int(d.Registers())
	if len(words) < need {
		return Value{}, fmt.Errorf("%w: %q needs %d words, have %d",
			ErrShortBuffer, d.UniqueID, need, len(words))
	}

	if len(d.SumScale) > 0 {
		return decodeSum(d, words)
	}

	switch d.DataType {
	case template.TypeString:
		return decodeString(d, words)
	default:
		return decodeNumeric(d, words)
	}
}

// decodeSum handles composite sum descriptors: each (offset, scale)
// term reads one word independently, the scaled terms sum, and the
// regular numeric post-processing applies to the total.
func decodeSum(d *template.Descriptor, words []uint16) (Value, error) {
	var sum float64
	for _, term := range d.SumScale {
		sum += float64(words[term.Offset]) * term.Scale
	}
	return Value{Kind: KindNumber, Num: postProcess(d, sum)}, nil
}

func decodeNumeric(d *template.Descriptor, words []uint16) (Value, error) {
	raw := assemble(d, words[:d.Count])

	if sentinel, ok := sentinelFor(d); ok && raw == sentinel {
		return Value{}, fmt.Errorf("%w: %q", ErrUnavailable, d.UniqueID)
	}

	raw, width, piped := bitPipeline(d, raw)

	if d.DataType == template.TypeBool {
		return Value{Kind: KindBool, Bool: raw != 0, Raw: raw, Num: float64(raw)}, nil
	}

	var v float64
	switch {
	case piped:
		// Bit-extracted values are unsigned by construction; the
		// descriptor's width no longer applies after the pipeline.
		v = float64(raw)
	case d.DataType == template.TypeFloat32:
		v = float64(math.Float32frombits(uint32(raw)))
	case d.DataType == template.TypeFloat64:
		v = math.Float64frombits(raw)
	case d.DataType.Signed():
		v = float64(signExtend(raw, width))
	case d.DataType.Integer():
		v = float64(raw)
	default:
		return Value{}, fmt.Errorf("%w: cannot decode %q as number", ErrTypeMismatch, d.DataType)
	}

	return Value{Kind: KindNumber, Num: postProcess(d, v), Raw: raw}, nil
}

// assemble applies the word reorder and concatenates the words into one
// unsigned integer, most significant word first.
func assemble(d *template.Descriptor, words []uint16) uint64 {
	ordered := reorder(d, words)
	var raw uint64
	for _, w := range ordered {
		raw = raw<<16 | uint64(w)
	}
	return raw
}

// reorder returns the words in wire-to-value order: little-endian
// reverses the bytes within each word, the swap flag reverses the word
// order. The input slice is never modified.
func reorder(d *template.Descriptor, words []uint16) []uint16 {
	if d.ByteOrder != template.OrderLittle && !d.WordSwap {
		return words
	}
	out := make([]uint16, len(words))
	copy(out, words)
	if d.ByteOrder == template.OrderLittle {
		for i, w := range out {
			out[i] = w<<8 | w>>8
		}
	}
	if d.WordSwap {
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	return out
}

// sentinelFor returns the effective "unavailable" bit pattern. The
// descriptor override wins; otherwise only 32-bit integer types carry
// the protocol default.
func sentinelFor(d *template.Descriptor) (uint64, bool) {
	if d.Sentinel != nil {
		return *d.Sentinel, true
	}
	if d.Count == 2 && d.DataType.Integer() {
		return Sentinel32, true
	}
	return 0, false
}

// bitPipeline applies mask → range → shift → rotate. It returns the
// transformed value, its effective bit width, and whether any stage ran.
func bitPipeline(d *template.Descriptor, raw uint64) (uint64, uint8, bool) {
	width := uint8(16)
	if w := d.Count * 16; w <= 64 {
		width = uint8(w)
	} else {
		width = 64
	}
	piped := false

	if d.BitMask != nil {
		raw &= *d.BitMask
		piped = true
	}

	// bit_position is the one-bit form of range extraction.
	r := d.BitRange
	if r == nil && d.BitPosition != nil {
		r = &template.BitRange{Start: *d.BitPosition, End: *d.BitPosition}
	}
	if r != nil {
		width = r.End - r.Start + 1
		raw = (raw >> r.Start) & widthMask(width)
		piped = true
	}

	if d.BitShift > 0 {
		raw = (raw << uint(d.BitShift)) & widthMask(width)
		piped = true
	} else if d.BitShift < 0 {
		raw >>= uint(-d.BitShift)
		piped = true
	}

	if rot := d.BitRotate; rot != 0 {
		n := ((rot % int(width)) + int(width)) % int(width)
		raw = ((raw << uint(n)) | (raw >> (uint(width) - uint(n)))) & widthMask(width)
		piped = true
	}

	return raw, width, piped
}

func widthMask(width uint8) uint64 {
	if width >= 64 {
		return math.MaxUint64
	}
	return 1<<width - 1
}

// signExtend interprets the low width bits of raw as two's complement.
func signExtend(raw uint64, width uint8) int64 {
	if width >= 64 {
		return int64(raw)
	}
	shift := 64 - width
	return int64(raw<<shift) >> shift
}

// postProcess applies the numeric transform value*scale*multiplier + offset.
func postProcess(d *template.Descriptor, v float64) float64 {
	return v*d.Scale.Or(1)*d.Multiplier.Or(1) + d.Offset.Or(0)
}

// decodeString converts the reordered word bytes into text, truncating
// at the first NUL and at max_length characters.
func decodeString(d *template.Descriptor, words []uint16) (Value, error) {
	ordered := reorder(d, words[:d.Count])
	buf := make([]byte, 0, len(ordered)*2)
	for _, w := range ordered {
		buf = append(buf, byte(w>>8), byte(w))
	}
	if i := indexNul(buf); i >= 0 {
		buf = buf[:i]
	}

	var s string
	switch d.Encoding {
	case template.EncodingASCII:
		for _, b := range buf {
			if b > 0x7F {
				return Value{}, fmt.Errorf("%w: byte 0x%02X is not ASCII", ErrInvalidEncoding, b)
			}
		}
		s = string(buf)
	case template.EncodingLatin1:
		var sb strings.Builder
		sb.Grow(len(buf))
		for _, b := range buf {
			sb.WriteRune(rune(b))
		}
		s = sb.String()
	default: // utf-8
		if !utf8.Valid(buf) {
			return Value{}, fmt.Errorf("%w: invalid UTF-8 in %q", ErrInvalidEncoding, d.UniqueID)
		}
		s = string(buf)
	}

	if d.MaxLength > 0 {
		runes := []rune(s)
		if len(runes) > d.MaxLength {
			s = string(runes[:d.MaxLength])
		}
	}
	return Value{Kind: KindString, Str: strings.TrimRight(s, " ")}, nil
}

func indexNul(b []byte) int {
	for i, c := range b {
		if c == 0 {
			return i
		}
	}
	return -1
}
