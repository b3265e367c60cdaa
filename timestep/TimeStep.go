// Package timestep implements timesteps of the agent-environment
// interaction and the transitions built from them.
package timestep

import (
	"fmt"
)

// StepType denotes the type of step that a TimeStep can be, either the
// first environmental step, a middle step, or a last step
type StepType int

const (
	First StepType = iota
	Mid
	Last
)

func (s StepType) String() string {
	switch s {
	case First:
		return "First"
	case Last:
		return "Last"
	default:
		return "Mid"
	}
}

// EndReason records why an episode ended. Episodes that are still
// running have EndReason None.
type EndReason int

const (
	None EndReason = iota
	Crash
	Timeout
)

func (e EndReason) String() string {
	switch e {
	case Crash:
		return "crash"
	case Timeout:
		return "timeout"
	default:
		return "none"
	}
}

// TimeStep packages together a single timestep in an environment.
//
// Observation is the state vector seen at this timestep. Done is true
// only when the environment itself terminated the episode (a crash);
// an episode cut off at the step limit is Last with Done false and
// EndReason Timeout.
type TimeStep struct {
	StepType    StepType
	Reward      float64
	Observation []float64
	Number      int
	Done        bool
	EndReason   EndReason

	// GoalReached is set on the step on which the agent arrived at the
	// goal and the goal was relocated.
	GoalReached bool
}

// New returns a new TimeStep
func New(t StepType, r float64, o []float64, n int) TimeStep {
	return TimeStep{StepType: t, Reward: r, Observation: o, Number: n}
}

// First returns whether a TimeStep is the first in an episode
func (t *TimeStep) First() bool {
	return t.StepType == First
}

// Mid returns whether a TimeStep is a middle step in an episode
func (t *TimeStep) Mid() bool {
	return t.StepType == Mid
}

// Last returns whether a TimeStep is the last step in an episode
func (t *TimeStep) Last() bool {
	return t.StepType == Last
}

// End marks the TimeStep as the last in its episode for the given
// reason.
func (t *TimeStep) End(reason EndReason) {
	t.StepType = Last
	t.EndReason = reason
}

func (t TimeStep) String() string {
	str := "TimeStep | Type: %v  |  Reward:  %.2f  |  Done: %v  |  " +
		"Step Number:  %v"

	return fmt.Sprintf(str, t.StepType, t.Reward, t.Done, t.Number)
}
