package param

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownParameter is returned when a parameter is looked up by a
	// name or id that was never declared.
	ErrUnknownParameter = errors.New("unknown parameter")
	// ErrDuplicateParameter is returned when a name is declared twice.
	ErrDuplicateParameter = errors.New("duplicate parameter")
	// ErrOutOfRange is returned when a value is outside of the declared range.
	ErrOutOfRange = errors.New("value out of range")
	// ErrInvalidValue is returned for non-finite values and messages that
	// carry no number.
	ErrInvalidValue = errors.New("invalid value")
	// ErrFrozen is returned when parameters are declared after the owning
	// graph was compiled.
	ErrFrozen = errors.New("parameter store is frozen")
)

// Error describes a failed parameter operation.
type Error struct {
	Name string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("parameter %q: %v", e.Name, e.Err)
}

// Unwrap returns the underlying sentinel error.
func (e *Error) Unwrap() error {
	return e.Err
}
