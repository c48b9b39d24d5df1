package plan

import "errors"

var (
	// ErrValidation is returned when a plan or installment fails construction checks.
	ErrValidation = errors.New("validation failed")
	// ErrInvalidArgument is returned when a mutator receives a value it cannot accept.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrInvalidState is returned when an operation does not apply to the installment's current status.
	ErrInvalidState = errors.New("invalid state")
	// ErrNotFound is returned when an installment number or plan id does not exist.
	ErrNotFound = errors.New("not found")
)
