// Package deepq implements the deep Q-learning update with a target
// approximator that is synced with the learned approximator at a fixed
// interval of updates.
package deepq

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/samuelfneumann/navdqn/agent"
	"github.com/samuelfneumann/navdqn/expreplay"
	"github.com/samuelfneumann/navdqn/timestep"
	"gonum.org/v1/gonum/floats"
)

// DeepQ implements the deep Q-learning algorithm. For each transition
// (s, a, s', r, done) in a batch sampled from the replay buffer the
// prediction for s is kept for all actions except a, whose target is
//
//	r                          if done
//	r + γ * max Qtarget(s', .) otherwise
//
// and the learned approximator is fit to these targets. The target
// approximator only changes when it is synced.
type DeepQ struct {
	valueFn agent.ValueFunction
	target  agent.ValueFunction
	replay  expreplay.ExperienceReplayer

	gamma                float64
	targetUpdateInterval int
	batchSize            int

	// Updates since the last sync
	syncCounter int
	updates     int
	syncs       int
	loss        float64

	logger zerolog.Logger
}

// New creates and returns a new DeepQ learner. The target approximator
// is a clone of valueFn.
func New(c Config, valueFn agent.ValueFunction,
	replay expreplay.ExperienceReplayer, logger zerolog.Logger) (*DeepQ,
	error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("new: %v", err)
	}
	if valueFn == nil || replay == nil {
		return nil, fmt.Errorf("new: nil approximator or replay buffer")
	}

	target, err := valueFn.Clone()
	if err != nil {
		return nil, fmt.Errorf("new: could not create target "+
			"approximator: %v", err)
	}

	return &DeepQ{
		valueFn:              valueFn,
		target:               target,
		replay:               replay,
		gamma:                c.Gamma,
		targetUpdateInterval: c.TargetUpdateInterval,
		batchSize:            replay.BatchSize(),
		logger:               logger.With().Str("component", "deepq").Logger(),
	}, nil
}

// Observe adds a transition to the replay buffer
func (d *DeepQ) Observe(t timestep.Transition) {
	d.replay.Push(t)
}

// Step samples a batch from the replay buffer and updates the learned
// approximator. If the buffer does not yet hold a batch, no update is
// made and nil is returned.
func (d *DeepQ) Step() error {
	batch, err := d.replay.Sample(d.batchSize)
	if expreplay.IsUnderrun(err) {
		d.logger.Debug().Int("size", d.replay.Len()).
			Int("batch", d.batchSize).Msg("skipping update")
		return nil
	} else if err != nil {
		return fmt.Errorf("step: %v", err)
	}

	if _, err := d.Update(batch); err != nil {
		return fmt.Errorf("step: %v", err)
	}
	return nil
}

// Update fits the learned approximator on batch, which must hold at
// least the batch size of transitions, and returns the mean squared
// TD error of the batch before the fit. The target approximator is
// synced once every TargetUpdateInterval updates.
func (d *DeepQ) Update(batch []timestep.Transition) (float64, error) {
	if len(batch) < d.batchSize {
		return 0, fmt.Errorf("update: batch too small\n\twant(>=%v)"+
			"\n\thave(%v)", d.batchSize, len(batch))
	}
	batch = batch[:d.batchSize]

	states := make([][]float64, len(batch))
	targets := make([][]float64, len(batch))
	var sqErr float64

	for i, t := range batch {
		q, err := d.valueFn.Predict(t.State)
		if err != nil {
			return 0, fmt.Errorf("update: %v", err)
		}
		if t.Action < 0 || t.Action >= len(q) {
			return 0, fmt.Errorf("update: action out of range"+
				"\n\twant(0 <= a < %v)\n\thave(%v)", len(q), t.Action)
		}

		target, err := d.updateTarget(t)
		if err != nil {
			return 0, fmt.Errorf("update: %v", err)
		}

		sqErr += (target - q[t.Action]) * (target - q[t.Action])
		q[t.Action] = target

		states[i] = t.State
		targets[i] = q
	}

	if err := d.valueFn.Fit(states, targets); err != nil {
		return 0, fmt.Errorf("update: %v", err)
	}
	d.updates++
	d.loss = sqErr / float64(len(batch))

	d.syncCounter++
	if d.syncCounter >= d.targetUpdateInterval {
		if err := d.Sync(); err != nil {
			return 0, fmt.Errorf("update: %v", err)
		}
	}

	return d.loss, nil
}

// updateTarget returns the update target of t
func (d *DeepQ) updateTarget(t timestep.Transition) (float64, error) {
	if t.Done {
		return t.Reward, nil
	}

	next, err := d.target.Predict(t.NextState)
	if err != nil {
		return 0, err
	}
	return t.Reward + d.gamma*floats.Max(next), nil
}

// Sync copies the weights of the learned approximator into the target
// approximator and restarts the sync interval
func (d *DeepQ) Sync() error {
	if err := d.target.SetWeights(d.valueFn.Weights()); err != nil {
		return fmt.Errorf("sync: %v", err)
	}
	d.syncCounter = 0
	d.syncs++
	d.logger.Debug().Int("updates", d.updates).Int("syncs", d.syncs).
		Msg("synced target")
	return nil
}

// TdError returns the TD error of the learned approximator on t
func (d *DeepQ) TdError(t timestep.Transition) (float64, error) {
	q, err := d.valueFn.Predict(t.State)
	if err != nil {
		return 0, fmt.Errorf("tdError: %v", err)
	}
	if t.Action < 0 || t.Action >= len(q) {
		return 0, fmt.Errorf("tdError: action out of range"+
			"\n\twant(0 <= a < %v)\n\thave(%v)", len(q), t.Action)
	}

	target, err := d.updateTarget(t)
	if err != nil {
		return 0, fmt.Errorf("tdError: %v", err)
	}
	return target - q[t.Action], nil
}

// EndEpisode performs cleanup at the end of an episode
func (d *DeepQ) EndEpisode() {}

// Updates returns the number of updates made
func (d *DeepQ) Updates() int {
	return d.updates
}

// Syncs returns the number of times the target approximator was synced
func (d *DeepQ) Syncs() int {
	return d.syncs
}

// Loss returns the mean squared TD error of the last update
func (d *DeepQ) Loss() float64 {
	return d.loss
}

// ValueFunction returns the learned approximator
func (d *DeepQ) ValueFunction() agent.ValueFunction {
	return d.valueFn
}

// Target returns the target approximator
func (d *DeepQ) Target() agent.ValueFunction {
	return d.target
}

// Replay returns the replay buffer owned by the learner
func (d *DeepQ) Replay() expreplay.ExperienceReplayer {
	return d.replay
}
