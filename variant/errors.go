package variant

import "errors"

var (
	// ErrUnsupportedVariant is returned with the default variant when no
	// registered variant matches an identity. It is a warning: the default
	// variant remains usable.
	ErrUnsupportedVariant = errors.New("unsupported modem variant")

	// ErrUnsupported is returned by capabilities a variant only partially
	// implements.
	ErrUnsupported = errors.New("not supported by modem variant")

	// ErrInvalidVariant is returned when registering a variant without a
	// name or match predicate.
	ErrInvalidVariant = errors.New("invalid variant")
)
