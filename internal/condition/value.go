package condition

import "strconv"

// ValueKind discriminates the scalar variants a context value can hold.
type ValueKind int

const (
	// KindAbsent marks an identifier the context does not define.
	KindAbsent ValueKind = iota
	KindNumber
	KindString
	KindBool
)

// Value is one scalar in an evaluation context. The zero Value is Absent.
type Value struct {
	Kind ValueKind
	Num  float64
	Str  string
	Bool bool
}

// Context maps identifier names to scalar values.
type Context map[string]Value

// Number builds a numeric Value.
func Number(f float64) Value { return Value{Kind: KindNumber, Num: f} }

// String builds a string Value.
func String(s string) Value { return Value{Kind: KindString, Str: s} }

// Bool builds a boolean Value.
func Bool(b bool) Value { return Value{Kind: KindBool, Bool: b} }

// Absent is the distinguished value of an undefined identifier.
var Absent = Value{Kind: KindAbsent}

// FromAny converts a scalar of type float64, int, string or bool into a
// Value. The second return is false for any other type.
func FromAny(v any) (Value, bool) {
	switch val := v.(type) {
	case float64:
		return Number(val), true
	case int:
		return Number(float64(val)), true
	case int64:
		return Number(float64(val)), true
	case string:
		return String(val), true
	case bool:
		return Bool(val), true
	default:
		return Absent, false
	}
}

// AsNumber returns the value's numeric form. Strings parse when they
// hold a number; bools map to 0/1. ok is false otherwise.
func (v Value) AsNumber() (float64, bool) {
	switch v.Kind {
	case KindNumber:
		return v.Num, true
	case KindString:
		f, err := strconv.ParseFloat(v.Str, 64)
		return f, err == nil
	case KindBool:
		if v.Bool {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}

// AsString returns the value's string form.
func (v Value) AsString() string {
	switch v.Kind {
	case KindNumber:
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	case KindString:
		return v.Str
	case KindBool:
		return strconv.FormatBool(v.Bool)
	default:
		return ""
	}
}
