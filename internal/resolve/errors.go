package resolve

import "errors"

// Configuration errors. All of these are fatal at setup: they name a
// defect in the user's selections or the template itself, and resolution
// fails closed rather than producing a partial device.
var (
	// ErrMissingModelSelection is returned when the template defines
	// valid_models but the selections carry no selected_model.
	ErrMissingModelSelection = errors.New("resolve: missing model selection")

	// ErrUnknownModel is returned when selected_model names a model the
	// template's valid_models table does not contain.
	ErrUnknownModel = errors.New("resolve: unknown model")

	// ErrInvalidOption is returned when a selection value is not among
	// the parameter's listed options.
	ErrInvalidOption = errors.New("resolve: invalid option")

	// ErrUnknownParameter is returned when a selection names a parameter
	// the template does not define.
	ErrUnknownParameter = errors.New("resolve: unknown parameter")

	// ErrUnknownPlaceholder is returned when a {{...}} placeholder
	// references a context key that does not exist.
	ErrUnknownPlaceholder = errors.New("resolve: unknown placeholder key")

	// ErrBadPlaceholder is returned when a placeholder expression is
	// malformed.
	ErrBadPlaceholder = errors.New("resolve: malformed placeholder")
)
