package template

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Table identifies which register table a descriptor reads from.
type Table string

const (
	// TableInput is the read-only input register table (function code 4).
	TableInput Table = "input"

	// TableHolding is the read/write holding register table (function code 3).
	TableHolding Table = "holding"
)

// Valid reports whether the table name is recognised.
func (t Table) Valid() bool {
	return t == TableInput || t == TableHolding
}

// DataType specifies how raw register words are interpreted.
type DataType string

const (
	TypeUint16  DataType = "uint16"
	TypeInt16   DataType = "int16"
	TypeUint32  DataType = "uint32"
	TypeInt32   DataType = "int32"
	TypeUint64  DataType = "uint64"
	TypeInt64   DataType = "int64"
	TypeFloat32 DataType = "float32"
	TypeFloat64 DataType = "float64"
	TypeString  DataType = "string"
	TypeBool    DataType = "bool"
)

// Valid reports whether the data type is recognised.
func (t DataType) Valid() bool {
	_, ok := dataTypeWidths[t]
	return ok || t == TypeString || t == TypeBool
}

// Signed reports whether the type uses two's-complement interpretation.
func (t DataType) Signed() bool {
	return t == TypeInt16 || t == TypeInt32 || t == TypeInt64
}

// Integer reports whether the type decodes to an integral value.
func (t DataType) Integer() bool {
	switch t {
	case TypeUint16, TypeInt16, TypeUint32, TypeInt32, TypeUint64, TypeInt64:
		return true
	default:
		return false
	}
}

// dataTypeWidths maps fixed-width types to their register count.
var dataTypeWidths = map[DataType]uint16{
	TypeUint16:  1,
	TypeInt16:   1,
	TypeUint32:  2,
	TypeInt32:   2,
	TypeUint64:  4,
	TypeInt64:   4,
	TypeFloat32: 2,
	TypeFloat64: 4,
}

// DefaultCount returns the register count implied by the data type.
// String and bool types have no implied width and return 1.
func (t DataType) DefaultCount() uint16 {
	if w, ok := dataTypeWidths[t]; ok {
		return w
	}
	return 1
}

// ByteOrder selects the byte ordering within each 16-bit register word.
type ByteOrder string

const (
	// OrderBig is the modbus default: most significant byte first.
	OrderBig ByteOrder = "big"

	// OrderLittle reverses the two bytes within each word.
	OrderLittle ByteOrder = "little"
)

// ControlType classifies a control descriptor's entity surface.
type ControlType string

const (
	ControlNumber ControlType = "number"
	ControlSelect ControlType = "select"
	ControlSwitch ControlType = "switch"
	ControlButton ControlType = "button"
	ControlText   ControlType = "text"
)

// Valid reports whether the control type is recognised.
func (c ControlType) Valid() bool {
	switch c {
	case ControlNumber, ControlSelect, ControlSwitch, ControlButton, ControlText:
		return true
	default:
		return false
	}
}

// Encoding names the character encoding for string descriptors.
type Encoding string

const (
	EncodingUTF8   Encoding = "utf-8"
	EncodingASCII  Encoding = "ascii"
	EncodingLatin1 Encoding = "latin-1"
)

// Kind identifies which descriptor collection an entry came from.
type Kind string

const (
	KindSensor     Kind = "sensor"
	KindControl    Kind = "control"
	KindBinary     Kind = "binary_sensor"
	KindCalculated Kind = "calculated"
)

// FloatOrExpr holds a numeric field that may be written either as a
// literal number or as a "{{...}}" placeholder expression resolved
// against the device context at setup time.
type FloatOrExpr struct {
	// Expr is the raw placeholder text; empty for literal values.
	Expr string

	// Value is the literal or resolved numeric value.
	Value float64

	// Defined is true once the field was present in the document or has
	// been resolved.
	Defined bool
}

// Lit builds a literal FloatOrExpr. Used by tests and overrides.
func Lit(v float64) FloatOrExpr {
	return FloatOrExpr{Value: v, Defined: true}
}

// IsExpr reports whether the field still holds an unresolved expression.
func (f FloatOrExpr) IsExpr() bool {
	return f.Expr != ""
}

// Or returns the field's value, or def when the field was not set.
func (f FloatOrExpr) Or(def float64) float64 {
	if !f.Defined || f.IsExpr() {
		return def
	}
	return f.Value
}

// UnmarshalYAML accepts either a YAML number or a string. Strings are
// stored as unresolved expressions for the resolver to substitute.
func (f *FloatOrExpr) UnmarshalYAML(node *yaml.Node) error {
	var num float64
	if err := node.Decode(&num); err == nil {
		*f = FloatOrExpr{Value: num, Defined: true}
		return nil
	}
	var s string
	if err := node.Decode(&s); err != nil {
		return fmt.Errorf("%w: expected number or placeholder string at line %d", ErrInvalidTemplate, node.Line)
	}
	*f = FloatOrExpr{Expr: s, Defined: true}
	return nil
}

// BitRange selects an inclusive bit span [Start, End] which is
// right-justified after extraction.
type BitRange struct {
	Start uint8
	End   uint8
}

// UnmarshalYAML decodes a two-element [start, end] sequence.
func (r *BitRange) UnmarshalYAML(node *yaml.Node) error {
	var pair []uint8
	if err := node.Decode(&pair); err != nil || len(pair) != 2 {
		return fmt.Errorf("%w: bit_range must be [start, end] at line %d", ErrInvalidTemplate, node.Line)
	}
	if pair[0] > pair[1] {
		return fmt.Errorf("%w: bit_range start %d exceeds end %d", ErrInvalidTemplate, pair[0], pair[1])
	}
	r.Start, r.End = pair[0], pair[1]
	return nil
}

// SumTerm is one (address-offset, scale) pair of a composite sum
// descriptor. The offset is relative to the descriptor's address.
type SumTerm struct {
	Offset uint16  `yaml:"offset"`
	Scale  float64 `yaml:"scale"`
}

// Descriptor is the declarative definition of one entity: where its raw
// value lives, how the raw words become a typed value, and how that
// value is presented. Descriptors are created at parse time and never
// mutated; overrides operate on copies from Clone.
type Descriptor struct {
	UniqueID string `yaml:"unique_id"`
	Name     string `yaml:"name"`

	// Kind records the source collection; set during parsing.
	Kind Kind `yaml:"-"`

	// Register geometry.
	Address  uint16   `yaml:"address"`
	Table    Table    `yaml:"register_type"`
	Slave    *uint8   `yaml:"slave"`
	DataType DataType `yaml:"data_type"`
	Count    uint16   `yaml:"count"`

	// Word layout.
	ByteOrder ByteOrder `yaml:"byte_order"`
	WordSwap  bool      `yaml:"word_swap"`

	// Bit pipeline, applied mask → range → shift → rotate.
	BitMask     *uint64   `yaml:"bit_mask"`
	BitRange    *BitRange `yaml:"bit_range"`
	BitShift    int       `yaml:"bit_shift"`
	BitRotate   int       `yaml:"bit_rotate"`
	BitPosition *uint8    `yaml:"bit_position"`

	// Numeric post-processing: value*scale*multiplier + offset.
	Scale      FloatOrExpr `yaml:"scale"`
	Multiplier FloatOrExpr `yaml:"multiplier"`
	Offset     FloatOrExpr `yaml:"offset"`
	SumScale   []SumTerm   `yaml:"sum_scale"`
	Precision  *int        `yaml:"precision"`

	// Sentinel overrides the protocol-reserved "unavailable" bit pattern
	// detected before scaling. Defaults per data type width.
	Sentinel *uint64 `yaml:"sentinel"`

	Unit        string `yaml:"unit"`
	DeviceClass string `yaml:"device_class"`

	// Condition gates inclusion of this descriptor during resolution.
	Condition string `yaml:"condition"`

	// Value mapping tables, priority map → flags → options.
	Map     map[string]string `yaml:"map"`
	Flags   map[uint8]string  `yaml:"flags"`
	Options map[string]string `yaml:"options"`

	// Control-only fields.
	Control       ControlType `yaml:"type"`
	Min           FloatOrExpr `yaml:"min"`
	Max           FloatOrExpr `yaml:"max"`
	Step          FloatOrExpr `yaml:"step"`
	WriteValue    *float64    `yaml:"write_value"`
	WriteValueOff *float64    `yaml:"write_value_off"`
	OnValue       *float64    `yaml:"on_value"`
	OffValue      *float64    `yaml:"off_value"`

	// String descriptors and text controls.
	Encoding  Encoding `yaml:"encoding"`
	MaxLength int      `yaml:"max_length"`

	// Calculated and binary sensors carry an expression for the host's
	// evaluator instead of a register address.
	Expression string `yaml:"expression"`
}

// UnmarshalYAML decodes a descriptor, accepting the legacy "bits" key as
// an alias for bit_position.
func (d *Descriptor) UnmarshalYAML(node *yaml.Node) error {
	type plain Descriptor
	var aux struct {
		Plain plain  `yaml:",inline"`
		Bits  *uint8 `yaml:"bits"`
	}
	if err := node.Decode(&aux); err != nil {
		return err
	}
	*d = Descriptor(aux.Plain)
	if d.BitPosition == nil && aux.Bits != nil {
		d.BitPosition = aux.Bits
	}
	return nil
}

// Registers returns the number of consecutive registers the descriptor
// occupies, including any sum_scale reach beyond its primary width.
func (d *Descriptor) Registers() uint16 {
	n := d.Count
	if n == 0 {
		n = d.DataType.DefaultCount()
	}
	for _, term := range d.SumScale {
		if term.Offset+1 > n {
			n = term.Offset + 1
		}
	}
	return n
}

// SlaveID returns the descriptor's slave override, or def when none is set.
func (d *Descriptor) SlaveID(def uint8) uint8 {
	if d.Slave != nil {
		return *d.Slave
	}
	return def
}

// Default display precision per descriptor kind. Calculated sensors keep
// more digits because their expressions compound rounding error.
const (
	defaultPrecision           = 1
	defaultCalculatedPrecision = 5
)

// EffectivePrecision returns the display precision for the descriptor.
func (d *Descriptor) EffectivePrecision() int {
	if d.Precision != nil {
		return *d.Precision
	}
	if d.Kind == KindCalculated {
		return defaultCalculatedPrecision
	}
	return defaultPrecision
}

// Parameter is one user-selectable dynamic-config entry.
type Parameter struct {
	Description string   `yaml:"description"`
	Options     []string `yaml:"options"`
	Default     string   `yaml:"default"`

	// SensorReplacements maps descriptor unique_id → firmware version →
	// field overrides applied when the resolved firmware matches exactly.
	SensorReplacements map[string]map[string]FieldOverrides `yaml:"sensor_replacements"`

	// SensorAvailability maps an option value of this parameter to the
	// unique_ids available under that value. Descriptors listed under any
	// option are excluded for options that do not list them.
	SensorAvailability map[string][]string `yaml:"sensor_availability"`
}

// HasOption reports whether v is one of the parameter's listed options.
// A parameter with no option list accepts any value.
func (p *Parameter) HasOption(v string) bool {
	if len(p.Options) == 0 {
		return true
	}
	for _, o := range p.Options {
		if o == v {
			return true
		}
	}
	return false
}

// FieldOverrides is a set of descriptor field replacements keyed by
// field name, as found under sensor_replacements.
type FieldOverrides map[string]any

// ModelRecord is the flat key/value record of one valid_models entry.
// Values are restricted to scalars (float64, string, bool) at load time.
type ModelRecord map[string]any

// DynamicConfig is the template's dynamic-config block: the named
// parameters plus the distinguished valid_models table.
type DynamicConfig struct {
	Parameters  map[string]*Parameter
	ValidModels map[string]ModelRecord
}

// UnmarshalYAML splits the valid_models key from the regular parameters.
func (c *DynamicConfig) UnmarshalYAML(node *yaml.Node) error {
	raw := map[string]yaml.Node{}
	if err := node.Decode(&raw); err != nil {
		return err
	}
	c.Parameters = make(map[string]*Parameter)
	for name, sub := range raw {
		if name == "valid_models" {
			if err := sub.Decode(&c.ValidModels); err != nil {
				return fmt.Errorf("%w: valid_models: %w", ErrInvalidTemplate, err)
			}
			continue
		}
		p := &Parameter{}
		if err := sub.Decode(p); err != nil {
			return fmt.Errorf("%w: parameter %q: %w", ErrInvalidTemplate, name, err)
		}
		c.Parameters[name] = p
	}
	return nil
}

// Template is the immutable parsed representation of one device
// template document. One instance is shared by reference across every
// device built from it.
type Template struct {
	Name            string `yaml:"name"`
	Version         int    `yaml:"version"`
	Description     string `yaml:"description"`
	Manufacturer    string `yaml:"manufacturer"`
	Model           string `yaml:"model"`
	Type            string `yaml:"type"`
	DefaultPrefix   string `yaml:"default_prefix"`
	DefaultSlaveID  uint8  `yaml:"default_slave_id"`
	FirmwareVersion string `yaml:"firmware_version"`

	AvailableFirmwareVersions []string `yaml:"available_firmware_versions"`

	DynamicConfig DynamicConfig `yaml:"dynamic_config"`

	Sensors       []*Descriptor `yaml:"sensors"`
	Controls      []*Descriptor `yaml:"controls"`
	BinarySensors []*Descriptor `yaml:"binary_sensors"`
	Calculated    []*Descriptor `yaml:"calculated"`
}

// Registered returns the descriptor collections that read registers
// (sensors and controls). Binary and calculated descriptors are handled
// by the host's expression evaluator and are never decoded here.
func (t *Template) Registered() []*Descriptor {
	out := make([]*Descriptor, 0, len(t.Sensors)+len(t.Controls))
	out = append(out, t.Sensors...)
	out = append(out, t.Controls...)
	return out
}

// Lookup finds a descriptor by unique_id across all collections.
func (t *Template) Lookup(id string) (*Descriptor, bool) {
	for _, list := range [][]*Descriptor{t.Sensors, t.Controls, t.BinarySensors, t.Calculated} {
		for _, d := range list {
			if d.UniqueID == id {
				return d, true
			}
		}
	}
	return nil, false
}
