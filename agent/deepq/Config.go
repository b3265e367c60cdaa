package deepq

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/samuelfneumann/navdqn/agent"
	"github.com/samuelfneumann/navdqn/expreplay"
)

// Config implements a configuration of the DeepQ learner
type Config struct {
	// Discount applied to the value of the next state
	Gamma float64 `json:"gamma"`

	// Number of updates between syncs of the target approximator
	TargetUpdateInterval int `json:"target_update_interval"`
}

// DefaultConfig returns a discount of 0.99 and a target sync every 2000
// updates
func DefaultConfig() Config {
	return Config{Gamma: 0.99, TargetUpdateInterval: 2000}
}

// Validate checks a Config's fields for correctness
func (c Config) Validate() error {
	if c.Gamma <= 0 || c.Gamma >= 1 {
		return fmt.Errorf("validate: gamma should be in (0, 1)"+
			"\n\thave(%v)", c.Gamma)
	}
	if c.TargetUpdateInterval < 1 {
		return fmt.Errorf("validate: target update interval should be "+
			"positive\n\twant(>0)\n\thave(%v)", c.TargetUpdateInterval)
	}
	return nil
}

// Create returns a new DeepQ learner fitting valueFn on transitions
// from replay
func (c Config) Create(valueFn agent.ValueFunction,
	replay expreplay.ExperienceReplayer, logger zerolog.Logger) (*DeepQ,
	error) {
	return New(c, valueFn, replay, logger)
}
