package expreplay

import "errors"

// ExpReplayError implements errors unique to an experience replay
// buffer.
type ExpReplayError struct {
	Op  string
	Err error
}

// Error satisifes the error interface
func (e *ExpReplayError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

// Unwrap returns the underlying error so that errors.Is can match the
// sentinel errors of this package.
func (e *ExpReplayError) Unwrap() error {
	return e.Err
}

// ErrEmptyBuffer is reported when sampling from a buffer holding no
// transitions.
var ErrEmptyBuffer = errors.New("buffer empty")

// ErrInsufficientSamples is reported when a buffer holds fewer
// transitions than the requested batch size.
var ErrInsufficientSamples = errors.New("fewer transitions than batch size")

// IsInsufficientSamples returns whether or not an error reports that
// there are insufficient samples in the buffer to sample from the
// buffer.
//
// A buffer has too few samples to sample if its current size is
// less than the requested number of samples.
func IsInsufficientSamples(err error) bool {
	return errors.Is(err, ErrInsufficientSamples)
}

// IsEmptyBuffer returns whether or not an error reports that a
// replay buffer is empty.
func IsEmptyBuffer(err error) bool {
	return errors.Is(err, ErrEmptyBuffer)
}

// IsUnderrun returns whether the error reports that a buffer could not
// yet produce a batch, either because it is empty or because it holds
// too few transitions. Callers recover from an underrun by skipping
// the update.
func IsUnderrun(err error) bool {
	return IsEmptyBuffer(err) || IsInsufficientSamples(err)
}
