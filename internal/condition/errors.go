package condition

import "errors"

// Domain errors for the condition package.
var (
	// ErrParse is returned when an expression cannot be parsed. Callers
	// treat this as a soft failure: the descriptor guarded by the
	// condition is excluded, not the whole resolution.
	ErrParse = errors.New("condition: parse error")

	// ErrEmptyExpression is returned when Eval is called with an empty
	// or blank expression string.
	ErrEmptyExpression = errors.New("condition: empty expression")
)
