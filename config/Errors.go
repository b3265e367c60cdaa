package config

import (
	"errors"
	"fmt"
)

// ErrInvalid is wrapped by every Error
var ErrInvalid = errors.New("invalid configuration")

// Error reports a configuration that cannot be used. Configuration
// errors are found before training starts and are fatal.
type Error struct {
	Op    string
	Field string
	Err   error
}

func (e *Error) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%v: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%v: %v: %v", e.Op, e.Field, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrInvalid, so that every Error matches
// it with errors.Is
func (e *Error) Is(target error) bool {
	return target == ErrInvalid
}

// IsConfigurationError returns whether err is or wraps an Error
func IsConfigurationError(err error) bool {
	var e *Error
	return errors.As(err, &e)
}
