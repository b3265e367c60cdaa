package policy

import (
	"fmt"
	"math"

	"github.com/samuelfneumann/navdqn/agent"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// Config configures the exploration schedule of an EGreedy policy.
// Epsilon starts at Initial and is multiplied by Decay at the end of
// each episode, never falling below Min.
type Config struct {
	Initial float64 `json:"initial"`
	Min     float64 `json:"min"`
	Decay   float64 `json:"decay"`
}

// DefaultConfig returns the default exploration schedule
func DefaultConfig() Config {
	return Config{Initial: 1.0, Min: 0.05, Decay: 0.992}
}

// Validate checks that Min <= Initial <= 1 and that Decay is in (0, 1]
func (c Config) Validate() error {
	if c.Min < 0 || c.Min > c.Initial || c.Initial > 1 {
		return fmt.Errorf("validate: epsilon should satisfy "+
			"0 <= min <= initial <= 1\n\thave(min=%v, initial=%v)", c.Min,
			c.Initial)
	}
	if c.Decay <= 0 || c.Decay > 1 {
		return fmt.Errorf("validate: epsilon decay should be in (0, 1]"+
			"\n\thave(%v)", c.Decay)
	}
	return nil
}

// EGreedy implements an ε-greedy policy: with probability ε an action is
// chosen uniformly at random, otherwise the greedy action is taken.
type EGreedy struct {
	greedy  *Greedy
	config  Config
	epsilon float64
	actions int

	uniform distuv.Uniform
	rng     *rand.Rand
}

// NewEGreedy returns a new EGreedy policy selecting actions with
// valueFn
func NewEGreedy(c Config, valueFn agent.ValueFunction,
	seed uint64) (*EGreedy, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("newEGreedy: %v", err)
	}

	return &EGreedy{
		greedy:  NewGreedy(valueFn, seed),
		config:  c,
		epsilon: c.Initial,
		actions: valueFn.Actions(),
		uniform: distuv.Uniform{Min: 0, Max: 1,
			Src: rand.NewSource(seed + 1)},
		rng: rand.New(rand.NewSource(seed + 2)),
	}, nil
}

// SelectAction draws u ~ U[0, 1) and returns the greedy action if u > ε
// and a uniformly random action otherwise
func (e *EGreedy) SelectAction(state []float64) (int, error) {
	if e.uniform.Rand() > e.epsilon {
		return e.greedy.SelectAction(state)
	}
	return e.rng.Intn(e.actions), nil
}

// Greedy selects the greedy action, ignoring ε. It is used for
// evaluation.
func (e *EGreedy) Greedy(state []float64) (int, error) {
	return e.greedy.SelectAction(state)
}

// Decay applies one step of the exploration schedule
func (e *EGreedy) Decay() {
	e.epsilon = math.Max(e.config.Min, e.epsilon*e.config.Decay)
}

// Epsilon returns the probability of selecting a random action
func (e *EGreedy) Epsilon() float64 {
	return e.epsilon
}

// SetEpsilon sets ε, which must be in [Min, 1]
func (e *EGreedy) SetEpsilon(epsilon float64) error {
	if epsilon < e.config.Min || epsilon > 1 {
		return fmt.Errorf("setEpsilon: epsilon out of range"+
			"\n\twant(%v <= ε <= 1)\n\thave(%v)", e.config.Min, epsilon)
	}
	e.epsilon = epsilon
	return nil
}
