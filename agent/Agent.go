// Package agent defines the interfaces shared by the learning
// algorithm, its policies and the action-value function approximators
// they are built on.
package agent

import (
	"io"

	"github.com/samuelfneumann/navdqn/timestep"
)

// ValueFunction approximates the value of each discrete action in a
// state. The learner owns two ValueFunctions of identical shape: one
// that is fit and a target copy that is only synced.
type ValueFunction interface {
	// Predict returns one value per action for a single state
	Predict(state []float64) ([]float64, error)

	// Fit moves the predictions for states towards targets, one row of
	// targets per state
	Fit(states, targets [][]float64) error

	// Weights returns a copy of the parameters
	Weights() [][]float64

	// SetWeights sets the parameters to a copy of weights, which must
	// have come from a ValueFunction of the same shape
	SetWeights(weights [][]float64) error

	// Clone returns an independent copy with the same parameters
	Clone() (ValueFunction, error)

	// Features returns the length of the states accepted
	Features() int

	// Actions returns the number of values predicted per state
	Actions() int
}

// Persistent is a ValueFunction whose parameters can be saved and
// restored
type Persistent interface {
	ValueFunction
	Save(w io.Writer) error
	Load(r io.Reader) error
}

// Learner implements a learning algorithm that defines how weights are
// updated.
type Learner interface {
	// Observe records a transition for later updates
	Observe(t timestep.Transition)

	// Step performs a single update to the learner
	Step() error

	// EndEpisode performs cleanup at the end of an episode
	EndEpisode()
}

// TdErrorer is a Learner that can return the TdError of some transition
type TdErrorer interface {
	Learner

	// TdError returns the TD error on a transition
	TdError(t timestep.Transition) (float64, error)
}

// Policy selects an action index in a state
type Policy interface {
	SelectAction(state []float64) (int, error)
}
