package template

import "errors"

// Domain errors for the template package.
//
// These errors can be checked using errors.Is():
//
//	if errors.Is(err, template.ErrInvalidTemplate) {
//	    // reject the document
//	}
var (
	// ErrInvalidTemplate is returned when a template document fails
	// structural validation.
	ErrInvalidTemplate = errors.New("template: invalid document")

	// ErrDuplicateID is returned when two descriptors share a unique_id.
	ErrDuplicateID = errors.New("template: duplicate unique_id")

	// ErrInvalidDataType is returned when a descriptor names an unknown
	// data type.
	ErrInvalidDataType = errors.New("template: invalid data_type")

	// ErrInvalidTable is returned when a descriptor names an unknown
	// register table.
	ErrInvalidTable = errors.New("template: invalid register table")

	// ErrInvalidCount is returned when a descriptor's register count is
	// inconsistent with its data type.
	ErrInvalidCount = errors.New("template: invalid register count")

	// ErrNonScalarModelValue is returned when a valid_models record
	// contains a nested structure instead of a number, string or bool.
	ErrNonScalarModelValue = errors.New("template: model value is not a scalar")

	// ErrUnknownField is returned when a sensor_replacements entry names
	// a descriptor field that cannot be overridden.
	ErrUnknownField = errors.New("template: unknown override field")
)
