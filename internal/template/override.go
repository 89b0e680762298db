package template

import (
	"fmt"
	"strconv"
)

// ApplyOverrides returns a copy of the descriptor with the given field
// replacements applied. The original descriptor is untouched. Unknown
// field names are rejected with ErrUnknownField so that template typos
// fail loudly at setup rather than silently keeping stale values.
func ApplyOverrides(d *Descriptor, fields FieldOverrides) (*Descriptor, error) {
	cpy := d.Clone()
	for name, raw := range fields {
		if err := applyOverride(cpy, name, raw); err != nil {
			return nil, err
		}
	}
	return cpy, nil
}

func applyOverride(d *Descriptor, name string, raw any) error {
	switch name {
	case "name":
		s, err := asString(raw)
		if err != nil {
			return overrideErr(name, err)
		}
		d.Name = s
	case "address":
		n, err := asUint16(raw)
		if err != nil {
			return overrideErr(name, err)
		}
		d.Address = n
	case "register_type":
		s, err := asString(raw)
		if err != nil {
			return overrideErr(name, err)
		}
		if !Table(s).Valid() {
			return overrideErr(name, fmt.Errorf("%w: %q", ErrInvalidTable, s))
		}
		d.Table = Table(s)
	case "data_type":
		s, err := asString(raw)
		if err != nil {
			return overrideErr(name, err)
		}
		if !DataType(s).Valid() {
			return overrideErr(name, fmt.Errorf("%w: %q", ErrInvalidDataType, s))
		}
		d.DataType = DataType(s)
		if d.Count < d.DataType.DefaultCount() {
			d.Count = d.DataType.DefaultCount()
		}
	case "count":
		n, err := asUint16(raw)
		if err != nil {
			return overrideErr(name, err)
		}
		d.Count = n
	case "scale":
		f, err := asFloat(raw)
		if err != nil {
			return overrideErr(name, err)
		}
		d.Scale = Lit(f)
	case "multiplier":
		f, err := asFloat(raw)
		if err != nil {
			return overrideErr(name, err)
		}
		d.Multiplier = Lit(f)
	case "offset":
		f, err := asFloat(raw)
		if err != nil {
			return overrideErr(name, err)
		}
		d.Offset = Lit(f)
	case "precision":
		n, err := asInt(raw)
		if err != nil {
			return overrideErr(name, err)
		}
		d.Precision = &n
	case "unit":
		s, err := asString(raw)
		if err != nil {
			return overrideErr(name, err)
		}
		d.Unit = s
	case "condition":
		s, err := asString(raw)
		if err != nil {
			return overrideErr(name, err)
		}
		d.Condition = s
	case "sentinel":
		n, err := asUint64(raw)
		if err != nil {
			return overrideErr(name, err)
		}
		d.Sentinel = &n
	case "bit_mask":
		n, err := asUint64(raw)
		if err != nil {
			return overrideErr(name, err)
		}
		d.BitMask = &n
	case "bit_position", "bits":
		n, err := asInt(raw)
		if err != nil || n < 0 || n > 63 {
			return overrideErr(name, fmt.Errorf("bit position out of range"))
		}
		p := uint8(n)
		d.BitPosition = &p
	case "min":
		f, err := asFloat(raw)
		if err != nil {
			return overrideErr(name, err)
		}
		d.Min = Lit(f)
	case "max":
		f, err := asFloat(raw)
		if err != nil {
			return overrideErr(name, err)
		}
		d.Max = Lit(f)
	case "step":
		f, err := asFloat(raw)
		if err != nil {
			return overrideErr(name, err)
		}
		d.Step = Lit(f)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	return nil
}

func overrideErr(field string, err error) error {
	return fmt.Errorf("override %q: %w", field, err)
}

func asString(v any) (string, error) {
	if s, ok := v.(string); ok {
		return s, nil
	}
	return "", fmt.Errorf("expected string, got %T", v)
}

func asFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case string:
		return strconv.ParseFloat(n, 64)
	default:
		return 0, fmt.Errorf("expected number, got %T", v)
	}
}

func asInt(v any) (int, error) {
	f, err := asFloat(v)
	if err != nil {
		return 0, err
	}
	return int(f), nil
}

func asUint16(v any) (uint16, error) {
	n, err := asInt(v)
	if err != nil || n < 0 || n > 0xFFFF {
		return 0, fmt.Errorf("expected register address 0-65535, got %v", v)
	}
	return uint16(n), nil
}

func asUint64(v any) (uint64, error) {
	switch n := v.(type) {
	case int:
		if n < 0 {
			return 0, fmt.Errorf("expected unsigned value, got %d", n)
		}
		return uint64(n), nil
	case int64:
		if n < 0 {
			return 0, fmt.Errorf("expected unsigned value, got %d", n)
		}
		return uint64(n), nil
	case uint64:
		return n, nil
	case float64:
		if n < 0 {
			return 0, fmt.Errorf("expected unsigned value, got %v", n)
		}
		return uint64(n), nil
	default:
		return 0, fmt.Errorf("expected unsigned value, got %T", v)
	}
}
