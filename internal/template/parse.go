package template

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads and parses a template document from disk.
func Load(path string) (*Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading template: %w", err)
	}
	tpl, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return tpl, nil
}

// Parse decodes a YAML template document and validates it. The returned
// Template is complete and must not be mutated by callers.
func Parse(data []byte) (*Template, error) {
	var tpl Template
	if err := yaml.Unmarshal(data, &tpl); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidTemplate, err)
	}
	if err := normalize(&tpl); err != nil {
		return nil, err
	}
	if err := validate(&tpl); err != nil {
		return nil, err
	}
	return &tpl, nil
}

// normalize fills derived fields: collection kinds, implied register
// counts, byte order and encoding defaults, and scalar model values.
func normalize(t *Template) error {
	kinds := []struct {
		list []*Descriptor
		kind Kind
	}{
		{t.Sensors, KindSensor},
		{t.Controls, KindControl},
		{t.BinarySensors, KindBinary},
		{t.Calculated, KindCalculated},
	}
	for _, c := range kinds {
		for _, d := range c.list {
			d.Kind = c.kind
			if c.kind == KindBinary || c.kind == KindCalculated {
				continue
			}
			if d.DataType == "" {
				d.DataType = TypeUint16
			}
			if d.Count == 0 {
				d.Count = d.DataType.DefaultCount()
			}
			if d.Table == "" {
				d.Table = TableHolding
			}
			if d.ByteOrder == "" {
				d.ByteOrder = OrderBig
			}
			if d.DataType == TypeString && d.Encoding == "" {
				d.Encoding = EncodingUTF8
			}
			// Switch on/off values default to the write values.
			if d.Control == ControlSwitch {
				if d.OnValue == nil {
					d.OnValue = d.WriteValue
				}
				if d.OffValue == nil {
					d.OffValue = d.WriteValueOff
				}
			}
		}
	}

	for model, record := range t.DynamicConfig.ValidModels {
		for key, v := range record {
			scalar, err := normalizeScalar(v)
			if err != nil {
				return fmt.Errorf("%w: model %q key %q", ErrNonScalarModelValue, model, key)
			}
			record[key] = scalar
		}
	}
	return nil
}

// normalizeScalar coerces YAML scalar values to float64, string or bool.
// Nested structures are rejected at load time rather than surfacing as
// runtime type errors during resolution.
func normalizeScalar(v any) (any, error) {
	switch val := v.(type) {
	case float64:
		return val, nil
	case int:
		return float64(val), nil
	case int64:
		return float64(val), nil
	case uint64:
		return float64(val), nil
	case string:
		return val, nil
	case bool:
		return val, nil
	default:
		return nil, ErrNonScalarModelValue
	}
}

func validate(t *Template) error {
	if t.Name == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidTemplate)
	}

	seen := make(map[string]struct{})
	for _, c := range [][]*Descriptor{t.Sensors, t.Controls, t.BinarySensors, t.Calculated} {
		for _, d := range c {
			if d.UniqueID == "" {
				return fmt.Errorf("%w: descriptor without unique_id", ErrInvalidTemplate)
			}
			if _, dup := seen[d.UniqueID]; dup {
				return fmt.Errorf("%w: %q", ErrDuplicateID, d.UniqueID)
			}
			seen[d.UniqueID] = struct{}{}
			if err := validateDescriptor(d); err != nil {
				return fmt.Errorf("%s: %w", d.UniqueID, err)
			}
		}
	}

	for param, p := range t.DynamicConfig.Parameters {
		if p.Default != "" && !p.HasOption(p.Default) {
			return fmt.Errorf("%w: parameter %q default %q not in options",
				ErrInvalidTemplate, param, p.Default)
		}
	}
	return nil
}

func validateDescriptor(d *Descriptor) error {
	if d.Kind == KindBinary || d.Kind == KindCalculated {
		if d.Expression == "" {
			return fmt.Errorf("%w: %s descriptor needs an expression", ErrInvalidTemplate, d.Kind)
		}
		return nil
	}

	if !d.Table.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidTable, d.Table)
	}
	if !d.DataType.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidDataType, d.DataType)
	}
	if min := d.DataType.DefaultCount(); d.Count < min && d.DataType != TypeString {
		return fmt.Errorf("%w: %s needs at least %d registers, have %d",
			ErrInvalidCount, d.DataType, min, d.Count)
	}
	if d.Count == 0 {
		return fmt.Errorf("%w: zero register count", ErrInvalidCount)
	}
	if !d.Scale.IsExpr() && d.Scale.Defined && d.Scale.Value == 0 {
		return fmt.Errorf("%w: zero scale", ErrInvalidTemplate)
	}

	if d.Kind == KindControl {
		if !d.Control.Valid() {
			return fmt.Errorf("%w: control type %q", ErrInvalidTemplate, d.Control)
		}
		switch d.Control {
		case ControlSelect:
			if len(d.Options) == 0 {
				return fmt.Errorf("%w: select control without options", ErrInvalidTemplate)
			}
		case ControlSwitch, ControlButton:
			if d.WriteValue == nil {
				return fmt.Errorf("%w: %s control without write_value", ErrInvalidTemplate, d.Control)
			}
		case ControlText:
			if d.MaxLength == 0 {
				return fmt.Errorf("%w: text control without max_length", ErrInvalidTemplate)
			}
		}
	}
	return nil
}
