package timestep

import "fmt"

// Transition is a single (s, a, s', r, done) tuple of the MDP. A
// Transition is created once per environment step and never mutated
// afterwards: NewTransition copies the state slices it is given, and
// callers must treat the State and NextState slices as read-only.
type Transition struct {
	State     []float64
	Action    int
	NextState []float64
	Reward    float64
	Done      bool
}

// NewTransition returns a new Transition holding copies of state and
// nextState.
func NewTransition(state []float64, action int, nextState []float64,
	reward float64, done bool) Transition {
	s := make([]float64, len(state))
	copy(s, state)

	next := make([]float64, len(nextState))
	copy(next, nextState)

	return Transition{
		State:     s,
		Action:    action,
		NextState: next,
		Reward:    reward,
		Done:      done,
	}
}

// FromSteps builds the Transition between two consecutive TimeSteps
// given the action taken in the first.
func FromSteps(step TimeStep, action int, next TimeStep) Transition {
	return NewTransition(step.Observation, action, next.Observation,
		next.Reward, next.Done)
}

func (t Transition) String() string {
	return fmt.Sprintf("Transition | Action: %d  |  Reward: %.2f  |  "+
		"Done: %v", t.Action, t.Reward, t.Done)
}
