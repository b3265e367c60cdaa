package environment

import "errors"

// Error implements errors raised while talking to a Collaborator
type Error struct {
	Op  string
	Err error
}

// Error satisfies the error interface
func (e *Error) Error() string {
	return e.Op + ": " + e.Err.Error()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Err
}

// ErrUnavailable is reported when a Collaborator did not acknowledge a
// command within the retry budget. It is fatal for a training run.
var ErrUnavailable = errors.New("environment unavailable")

// ErrSensorDataMissing is reported when a state is built before any
// sensor frame has arrived. It is recovered locally with a default
// state.
var ErrSensorDataMissing = errors.New("sensor data missing")

// ErrNotFound is returned by a Collaborator for commands naming an
// entity that does not exist
var ErrNotFound = errors.New("entity not found")

// ErrExists is returned by a Collaborator when spawning an entity
// whose name is taken
var ErrExists = errors.New("entity already exists")

// IsUnavailable returns whether an error reports an unresponsive
// Collaborator
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}
