// Package policy implements action selection on top of an
// action-value function approximator
package policy

import (
	"fmt"

	"github.com/samuelfneumann/navdqn/agent"
	"github.com/samuelfneumann/navdqn/utils/floatutils"
	"golang.org/x/exp/rand"
)

// Greedy implements a greedy policy. Ties between maximal action values
// are broken uniformly at random.
type Greedy struct {
	valueFn agent.ValueFunction
	rng     *rand.Rand
}

// NewGreedy creates a new Greedy policy
func NewGreedy(valueFn agent.ValueFunction, seed uint64) *Greedy {
	return &Greedy{valueFn, rand.New(rand.NewSource(seed))}
}

// SelectAction selects the action of maximal value in state
func (g *Greedy) SelectAction(state []float64) (int, error) {
	values, err := g.valueFn.Predict(state)
	if err != nil {
		return 0, fmt.Errorf("selectAction: %v", err)
	}
	if len(values) == 0 {
		return 0, fmt.Errorf("selectAction: no action values predicted")
	}

	_, maxIndices := floatutils.MaxSlice(values)
	return maxIndices[g.rng.Intn(len(maxIndices))], nil
}
