package decode

import (
	"strconv"
	"strings"

	"github.com/nordvik-automation/modbus-core/internal/template"
)

// Map applies the descriptor's value mapping chain and returns the
// display value plus the numeric value.
//
// Priority, first configured table wins:
//
//  1. map: exact key lookup into a label table
//  2. flags: integer values only; every configured bit position set in
//     the raw integer appends its label, comma-joined in bit order
//     (empty string when no configured bit is set)
//  3. options: same shape as map, used for selectable entities
//
// The numeric return always carries the pre-mapping value so downstream
// consumers keep bitwise access regardless of the display form.
func Map(d *template.Descriptor, v Value) (string, float64) {
	numeric := v.Num

	switch {
	case len(d.Map) > 0:
		if label, ok := lookup(d.Map, v, d); ok {
			return label, numeric
		}
	case len(d.Flags) > 0 && v.Kind == KindNumber && d.DataType.Integer():
		return flagLabels(d.Flags, v.Raw), numeric
	case len(d.Options) > 0:
		if label, ok := lookup(d.Options, v, d); ok {
			return label, numeric
		}
	}

	return Format(d, v), numeric
}

// DecodeAndMap composes Decode and Map: raw words in, presentation
// value and numeric value out.
func DecodeAndMap(d *template.Descriptor, words []uint16) (string, float64, error) {
	v, err := Decode(d, words)
	if err != nil {
		return "", 0, err
	}
	display, numeric := Map(d, v)
	return display, numeric, nil
}

// lookup finds the value's label in a map/options table. Integer values
// key by their decimal rendering; strings key verbatim.
func lookup(table map[string]string, v Value, d *template.Descriptor) (string, bool) {
	var key string
	switch v.Kind {
	case KindString:
		key = v.Str
	case KindBool:
		key = strconv.FormatBool(v.Bool)
	default:
		if v.Num == float64(int64(v.Num)) {
			key = strconv.FormatInt(int64(v.Num), 10)
		} else {
			key = strconv.FormatFloat(v.Num, 'f', -1, 64)
		}
	}
	label, ok := table[key]
	return label, ok
}

// flagLabels renders the labels of every set bit, ordered by bit
// position so the output is stable across polls.
func flagLabels(flags map[uint8]string, raw uint64) string {
	var parts []string
	for bit := uint8(0); bit < 64; bit++ {
		if raw&(1<<bit) == 0 {
			continue
		}
		if label, ok := flags[bit]; ok {
			parts = append(parts, label)
		}
	}
	return strings.Join(parts, ", ")
}

// Format renders a value with no mapping table configured: numbers
// round to the descriptor's display precision, booleans render as
// on/off, strings pass through.
func Format(d *template.Descriptor, v Value) string {
	switch v.Kind {
	case KindString:
		return v.Str
	case KindBool:
		if v.Bool {
			return "on"
		}
		return "off"
	default:
		return strconv.FormatFloat(v.Num, 'f', d.EffectivePrecision(), 64)
	}
}
