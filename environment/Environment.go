// Package environment outlines the interfaces and structs needed to
// connect the learning code to a simulated robot: the collaborator
// contract for actuation and entity lifecycle, the sensor mailboxes
// through which frames arrive, and the episodic Environment that the
// training loop steps.
package environment

import (
	"context"

	"github.com/samuelfneumann/navdqn/timestep"
	"gonum.org/v1/gonum/spatial/r2"
)

// Twist is a velocity command for a differential-drive robot. Linear
// is the forward speed in m/s and Angular is the yaw rate in rad/s.
type Twist struct {
	Linear  float64
	Angular float64
}

// Collaborator implements the capability contract of a simulator. All
// commands are synchronous: they return once the simulator has
// acknowledged them or the context is done. Sensor frames are
// delivered asynchronously to the Sensors registered with Attach.
type Collaborator interface {
	// Attach registers the mailboxes that sensor frames are delivered
	// to. Frames published before Attach is called are dropped.
	Attach(s *Sensors)

	// Actuate applies a velocity command to the robot
	Actuate(ctx context.Context, t Twist) error

	// Spawn creates the named entity at a coordinate. Spawning a name
	// that already exists returns ErrExists.
	Spawn(ctx context.Context, name string, at r2.Vec) error

	// Delete removes the named entity. Deleting a name that does not
	// exist returns ErrNotFound.
	Delete(ctx context.Context, name string) error

	// Teleport moves the named entity to a coordinate and stops it.
	Teleport(ctx context.Context, name string, at r2.Vec) error

	// Exists returns whether the named entity is present
	Exists(ctx context.Context, name string) (bool, error)
}

// Environment implements an episodic environment with a discrete
// action set, producing TimeSteps whose observations are state
// vectors of fixed length.
type Environment interface {
	// Reset starts a new episode and returns its first TimeStep
	Reset(ctx context.Context) (timestep.TimeStep, error)

	// Step takes the action with the given index and returns the
	// resulting TimeStep
	Step(ctx context.Context, action int) (timestep.TimeStep, error)

	// ObservationSize returns the length of every state vector
	ObservationSize() int

	// Actions returns the number of discrete actions
	Actions() int
}
