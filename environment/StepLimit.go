package environment

import "github.com/samuelfneumann/navdqn/timestep"

// StepLimit ends episodes once a fixed number of steps has been taken
type StepLimit struct {
	episodeSteps int
}

// NewStepLimit creates and returns a new step limit
func NewStepLimit(episodeSteps int) StepLimit {
	return StepLimit{episodeSteps}
}

// End determines whether or not the current episode should be ended,
// returning a boolean to indicate episode termination. If the episode
// should be ended and has not already ended, End() will modify the
// timestep so that it is the last of the episode with reason Timeout.
func (s StepLimit) End(t *timestep.TimeStep) bool {
	if t.Last() {
		return true
	}
	if t.Number >= s.episodeSteps {
		t.End(timestep.Timeout)
		return true
	}
	return false
}

// Steps returns the number of steps in an episode
func (s StepLimit) Steps() int {
	return s.episodeSteps
}
