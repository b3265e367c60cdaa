// Package navigation implements the goal-seeking navigation task of a
// range-sensing mobile robot. It turns the frames published by a
// simulator into fixed-length state vectors and rewards, and manages
// the goal entity across episodes.
package navigation

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"
	"github.com/samuelfneumann/navdqn/environment"
	"github.com/samuelfneumann/navdqn/timestep"
	"github.com/samuelfneumann/navdqn/utils/floatutils"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r2"
)

// Env implements the navigation environment. It holds the goal
// coordinate and the goal distance cached from the previous step.
type Env struct {
	config    Config
	side      float64
	front     float64
	readings  int
	stateSize int

	collab  environment.Collaborator
	sensors *environment.Sensors
	goals   *environment.GoalSampler
	limit   environment.StepLimit

	goal         r2.Vec
	hasGoal      bool
	prevDistance float64
	goalsReached int
	prevStep     timestep.TimeStep

	logger zerolog.Logger
}

// New returns a new navigation environment. The environment attaches
// its sensor mailboxes to collab.
func New(c Config, collab environment.Collaborator, episodeSteps int,
	seed uint64, logger zerolog.Logger) (*Env, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("new: %w", err)
	}
	if episodeSteps < 1 {
		return nil, fmt.Errorf("new: episode steps should be positive"+
			"\n\twant(>0)\n\thave(%v)", episodeSteps)
	}

	goals, err := environment.NewGoalSampler(c.GoalGrid, seed)
	if err != nil {
		return nil, fmt.Errorf("new: %w", err)
	}

	side, front := c.Thresholds()
	sensors := environment.NewSensors()
	collab.Attach(sensors)

	return &Env{
		config:       c,
		side:         side,
		front:        front,
		readings:     c.Readings(),
		stateSize:    c.StateSize(),
		collab:       collab,
		sensors:      sensors,
		goals:        goals,
		limit:        environment.NewStepLimit(episodeSteps),
		prevDistance: math.Inf(1),
		logger:       logger.With().Str("component", "navigation").Logger(),
	}, nil
}

// Observe builds a state vector from the latest sensor frames.
//
// Every ScanRatio-th reading is kept; non-finite readings become
// MaxScanRange and finite readings are clamped to it. The readings are
// followed by the angular velocity, the distance to the goal and the
// heading error in [-π, π). Missing frames are replaced by defaults
// and reported as a warning.
func (e *Env) Observe() ([]float64, error) {
	state := make([]float64, e.stateSize)

	scan, ok := e.sensors.Scan.Latest()
	if !ok {
		e.logger.Warn().Err(environment.ErrSensorDataMissing).
			Str("frame", "scan").Msg("using max scan range")
		for i := 0; i < e.readings; i++ {
			state[i] = e.config.MaxScanRange
		}
	} else {
		if len(scan.Ranges) != e.config.RawSamples {
			return nil, fmt.Errorf("observe: unexpected number of range "+
				"readings\n\twant(%v)\n\thave(%v)", e.config.RawSamples,
				len(scan.Ranges))
		}
		for i := 0; i < e.readings; i++ {
			r := scan.Ranges[i*e.config.ScanRatio]
			if !floatutils.IsFinite(r) {
				r = e.config.MaxScanRange
			}
			state[i] = math.Min(r, e.config.MaxScanRange)
		}
	}

	angularVel, distance, heading := e.goalInfo()
	state[e.readings] = angularVel
	state[e.readings+1] = distance
	state[e.readings+2] = heading

	return state, nil
}

// goalInfo returns the auxiliary features of the state. Before any
// pose has arrived these are 0, +Inf and 0.
func (e *Env) goalInfo() (angularVel, distance, heading float64) {
	pose, ok := e.sensors.Pose.Latest()
	if !ok {
		e.logger.Warn().Err(environment.ErrSensorDataMissing).
			Str("frame", "pose").Msg("using default goal information")
		return 0, math.Inf(1), 0
	}

	toGoal := r2.Sub(e.goal, pose.Position)
	distance = r2.Norm(toGoal)
	goalAngle := math.Atan2(toGoal.Y, toGoal.X)
	heading = floatutils.WrapAngle(goalAngle - pose.Yaw())

	return pose.AngularVelocity, distance, heading
}

// Reward returns the reward for arriving in state and whether the
// episode has ended. Arriving at the goal relocates it, which is why
// Reward needs a context and may fail.
//
// Rules are checked in order: collision, goal arrival, then the
// shaping reward of the configured RewardMode.
func (e *Env) Reward(ctx context.Context, state []float64,
	prevDistance float64) (float64, bool, error) {
	if len(state) != e.stateSize {
		panic(fmt.Sprintf("reward: illegal state size \n\twant(%v) "+
			"\n\thave(%v)", e.stateSize, len(state)))
	}

	if e.collided(state[:e.readings]) {
		return e.config.CrashPenalty, true, nil
	}

	distance := state[e.readings+1]
	if distance < e.config.GoalArrivalThreshold {
		if err := e.relocateGoal(ctx); err != nil {
			return 0, false, fmt.Errorf("reward: %w", err)
		}
		return e.config.GoalReward, false, nil
	}

	var reward float64
	switch e.config.RewardMode {
	case Heading:
		reward = e.config.DirectionScalar * math.Cos(state[e.readings+2])

	case DistanceDelta:
		// A distance that is unknown now or before is never closer
		closer := floatutils.IsFinite(distance) &&
			floatutils.IsFinite(prevDistance) && distance < prevDistance
		if closer {
			reward = e.config.DirectionScalar
		} else {
			reward = -e.config.DirectionScalar
		}
	}

	if !floatutils.IsFinite(reward) {
		panic(fmt.Sprintf("reward: non-finite reward %v", reward))
	}
	return reward, false, nil
}

// collided returns whether the robot is too close to an obstacle. The
// leading FrontReadings readings are compared against the front
// threshold and the rest against the side threshold.
func (e *Env) collided(readings []float64) bool {
	front := readings[:e.config.FrontReadings]
	side := readings[e.config.FrontReadings:]

	return floats.Min(side) < e.side || floats.Min(front) < e.front
}

// relocateGoal moves the goal to a new coordinate of the goal grid
func (e *Env) relocateGoal(ctx context.Context) error {
	next := e.goals.Sample(e.goal)
	if err := e.replaceGoal(ctx, next); err != nil {
		return err
	}
	e.goalsReached++

	e.logger.Info().Float64("x", next.X).Float64("y", next.Y).
		Int("goals_reached", e.goalsReached).Msg("reached goal")
	return nil
}

// replaceGoal deletes the goal entity if it exists and spawns it at a
// new coordinate
func (e *Env) replaceGoal(ctx context.Context, at r2.Vec) error {
	exists, err := e.collab.Exists(ctx, GoalEntity)
	if err != nil {
		return err
	}
	if exists {
		if err := e.collab.Delete(ctx, GoalEntity); err != nil {
			return err
		}
	}

	if err := e.collab.Spawn(ctx, GoalEntity, at); err != nil {
		return err
	}
	e.goal = at
	e.hasGoal = true
	return nil
}

// Reset starts a new episode: the goal is moved to a fresh coordinate
// and the robot is stopped and returned to its start position.
func (e *Env) Reset(ctx context.Context) (timestep.TimeStep, error) {
	exclude := e.config.InitialGoalExclude
	if e.hasGoal {
		exclude = e.goal
	}
	next := e.goals.Sample(exclude)

	if err := e.collab.Actuate(ctx, environment.Twist{}); err != nil {
		return timestep.TimeStep{}, fmt.Errorf("reset: %w", err)
	}
	if err := e.collab.Teleport(ctx, RobotEntity, e.config.Start); err != nil {
		return timestep.TimeStep{}, fmt.Errorf("reset: %w", err)
	}
	if err := e.replaceGoal(ctx, next); err != nil {
		return timestep.TimeStep{}, fmt.Errorf("reset: %w", err)
	}

	if err := wait(ctx, time.Duration(e.config.SettleDelay)); err != nil {
		return timestep.TimeStep{}, fmt.Errorf("reset: %w", err)
	}

	state, err := e.Observe()
	if err != nil {
		return timestep.TimeStep{}, fmt.Errorf("reset: %w", err)
	}
	e.prevDistance = state[e.readings+1]

	e.logger.Debug().Float64("x", next.X).Float64("y", next.Y).
		Msg("new goal")

	step := timestep.New(timestep.First, 0, state, 0)
	e.prevStep = step
	return step, nil
}

// Step takes the action with the given index and returns the next
// TimeStep. A collision ends the episode with reason Crash; reaching
// the step limit ends it with reason Timeout.
func (e *Env) Step(ctx context.Context, action int) (timestep.TimeStep,
	error) {
	if action < 0 || action >= len(e.config.ActionSpace) {
		return timestep.TimeStep{}, fmt.Errorf("step: illegal action"+
			"\n\twant([0, %v))\n\thave(%v)", len(e.config.ActionSpace),
			action)
	}

	twist := environment.Twist{
		Linear:  e.config.LinearSpeed,
		Angular: e.config.ActionSpace[action],
	}
	if err := e.collab.Actuate(ctx, twist); err != nil {
		return timestep.TimeStep{}, fmt.Errorf("step: %w", err)
	}

	if err := wait(ctx, time.Duration(e.config.ControlPeriod)); err != nil {
		return timestep.TimeStep{}, fmt.Errorf("step: %w", err)
	}

	state, err := e.Observe()
	if err != nil {
		return timestep.TimeStep{}, fmt.Errorf("step: %w", err)
	}

	reached := e.goalsReached
	reward, done, err := e.Reward(ctx, state, e.prevDistance)
	if err != nil {
		return timestep.TimeStep{}, fmt.Errorf("step: %w", err)
	}
	e.prevDistance = state[e.readings+1]

	step := timestep.New(timestep.Mid, reward, state, e.prevStep.Number+1)
	step.GoalReached = e.goalsReached > reached
	if done {
		step.Done = true
		step.End(timestep.Crash)
	}
	e.limit.End(&step)

	e.prevStep = step
	return step, nil
}

// Goal returns the current goal coordinate
func (e *Env) Goal() r2.Vec {
	return e.goal
}

// GoalsReached returns the number of times the robot arrived at a goal
func (e *Env) GoalsReached() int {
	return e.goalsReached
}

// PreviousDistance returns the goal distance cached at the last step
func (e *Env) PreviousDistance() float64 {
	return e.prevDistance
}

// CurrentTimeStep returns the last TimeStep produced
func (e *Env) CurrentTimeStep() timestep.TimeStep {
	return e.prevStep
}

// ObservationSize returns the length of every state vector
func (e *Env) ObservationSize() int {
	return e.stateSize
}

// Actions returns the number of discrete actions
func (e *Env) Actions() int {
	return len(e.config.ActionSpace)
}

// Config returns the configuration of the environment
func (e *Env) Config() Config {
	return e.config
}

// wait blocks for d or until ctx is done
func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
