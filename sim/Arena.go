// Package sim implements an in-process 2D arena for a differential
// drive robot with a planar range sensor, built on Box2D. The Arena
// satisfies environment.Collaborator.
package sim

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/ByteArena/box2d"
	"github.com/rs/zerolog"
	"github.com/samuelfneumann/navdqn/environment"
	"gonum.org/v1/gonum/spatial/r2"
)

// RobotEntity is the name under which the robot is registered
const RobotEntity = "robot"

// epoch is the wall time stamped on frames at simulated time zero
var epoch = time.Unix(0, 0).UTC()

// contactDetector counts the contacts between the robot and the
// static bodies of the arena
type contactDetector struct {
	arena *Arena
}

func (c *contactDetector) BeginContact(contact box2d.B2ContactInterface) {
	a, b := contact.GetFixtureA(), contact.GetFixtureB()
	if a.IsSensor() || b.IsSensor() {
		return
	}

	robot := c.arena.robot
	if robot == a.GetBody() || robot == b.GetBody() {
		c.arena.collisions++
	}
}

func (c *contactDetector) EndContact(contact box2d.B2ContactInterface) {}

func (c *contactDetector) PreSolve(contact box2d.B2ContactInterface,
	oldManifold box2d.B2Manifold) {
}

func (c *contactDetector) PostSolve(contact box2d.B2ContactInterface,
	impulse *box2d.B2ContactImpulse) {
}

// Arena is a walled room holding the robot, static obstacles and any
// number of named marker entities such as a goal. Markers are sensor
// bodies: they are drawn but neither block the robot nor return range
// readings.
//
// By default the Arena runs in lockstep: each Actuate advances the
// world and publishes fresh frames before returning. After Run is
// called the world advances on its own clock instead and Actuate only
// sets the velocity command.
type Arena struct {
	mu sync.Mutex

	config Config
	world  box2d.B2World

	walls     []*box2d.B2Body
	obstacles []*box2d.B2Body
	robot     *box2d.B2Body
	entities  map[string]*box2d.B2Body

	sensors *environment.Sensors
	twist   environment.Twist
	clock   time.Duration
	running bool

	collisions int
	logger     zerolog.Logger
}

// New returns a new Arena with the robot at start facing the +x axis
func New(c Config, start r2.Vec, logger zerolog.Logger) (*Arena, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("new: %w", err)
	}
	if math.Abs(start.X) >= c.HalfExtent || math.Abs(start.Y) >= c.HalfExtent {
		return nil, fmt.Errorf("new: start outside of arena"+
			"\n\twant(|x|, |y| < %v)\n\thave(%v)", c.HalfExtent, start)
	}

	a := &Arena{
		config:   c,
		world:    box2d.MakeB2World(box2d.MakeB2Vec2(0, 0)),
		entities: make(map[string]*box2d.B2Body),
		logger:   logger.With().Str("component", "sim").Logger(),
	}
	a.world.SetContactListener(&contactDetector{a})

	a.buildWalls()
	for _, o := range c.Obstacles {
		a.obstacles = append(a.obstacles, a.buildObstacle(o))
	}
	a.robot = a.buildRobot(start)
	a.entities[RobotEntity] = a.robot

	return a, nil
}

func (a *Arena) buildWalls() {
	h := a.config.HalfExtent
	corners := []box2d.B2Vec2{
		box2d.MakeB2Vec2(-h, -h),
		box2d.MakeB2Vec2(h, -h),
		box2d.MakeB2Vec2(h, h),
		box2d.MakeB2Vec2(-h, h),
	}

	a.walls = make([]*box2d.B2Body, len(corners))
	for i := range corners {
		wallDef := box2d.NewB2BodyDef()
		wallDef.Type = 0 // Static body
		a.walls[i] = a.world.CreateBody(wallDef)

		wallShape := box2d.NewB2EdgeShape()
		wallShape.Set(corners[i], corners[(i+1)%len(corners)])

		wallFix := box2d.MakeB2FixtureDef()
		wallFix.Shape = wallShape
		wallFix.Friction = 0.1
		a.walls[i].CreateFixtureFromDef(&wallFix)
	}
}

func (a *Arena) buildObstacle(o Obstacle) *box2d.B2Body {
	obstacleDef := box2d.MakeB2BodyDef()
	obstacleDef.Type = 0 // Static body
	obstacleDef.Position = box2d.MakeB2Vec2(o.Center.X, o.Center.Y)
	body := a.world.CreateBody(&obstacleDef)

	shape := box2d.NewB2PolygonShape()
	shape.SetAsBox(o.HalfWidth, o.HalfHeight)

	fix := box2d.MakeB2FixtureDef()
	fix.Shape = shape
	fix.Friction = 0.1
	body.CreateFixtureFromDef(&fix)

	return body
}

func (a *Arena) buildRobot(at r2.Vec) *box2d.B2Body {
	robotDef := box2d.MakeB2BodyDef()
	robotDef.Type = 2 // Dynamic body
	robotDef.Position = box2d.MakeB2Vec2(at.X, at.Y)
	robotDef.Angle = 0
	robotDef.AllowSleep = false
	body := a.world.CreateBody(&robotDef)

	shape := box2d.NewB2CircleShape()
	shape.M_radius = a.config.RobotRadius

	fix := box2d.MakeB2FixtureDef()
	fix.Shape = shape
	fix.Density = 1.0
	fix.Friction = 0.1
	fix.Restitution = 0.0
	body.CreateFixtureFromDef(&fix)

	return body
}

func (a *Arena) buildMarker(at r2.Vec) *box2d.B2Body {
	markerDef := box2d.MakeB2BodyDef()
	markerDef.Type = 0 // Static body
	markerDef.Position = box2d.MakeB2Vec2(at.X, at.Y)
	body := a.world.CreateBody(&markerDef)

	shape := box2d.NewB2CircleShape()
	shape.M_radius = a.config.GoalRadius

	fix := box2d.MakeB2FixtureDef()
	fix.Shape = shape
	fix.IsSensor = true
	body.CreateFixtureFromDef(&fix)

	return body
}

// Attach registers the mailboxes that frames are published to. The
// current frames are published immediately.
func (a *Arena) Attach(s *environment.Sensors) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.sensors = s
	a.publishLocked()
}

// Actuate sets the velocity command of the robot. In lockstep mode the
// world is advanced by one control period and frames are published.
func (a *Arena) Actuate(ctx context.Context, t environment.Twist) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.robot == nil {
		return fmt.Errorf("actuate: %w", environment.ErrNotFound)
	}
	a.twist = t

	if a.running {
		return nil
	}
	for i := 0; i < a.config.SubSteps; i++ {
		a.stepLocked(a.config.TimeStep)
	}
	a.publishLocked()
	return nil
}

// stepLocked drives the robot with the current command and advances
// the world by dt
func (a *Arena) stepLocked(dt float64) {
	if a.robot != nil {
		angle := a.robot.GetAngle()
		a.robot.SetLinearVelocity(box2d.MakeB2Vec2(
			a.twist.Linear*math.Cos(angle),
			a.twist.Linear*math.Sin(angle),
		))
		a.robot.SetAngularVelocity(a.twist.Angular)
	}

	a.world.Step(dt, a.config.VelocityIterations,
		a.config.PositionIterations)
	a.clock += time.Duration(dt * float64(time.Second))
}

// Spawn creates a marker entity. Only one robot exists; it may be
// spawned again after it was deleted.
func (a *Arena) Spawn(ctx context.Context, name string, at r2.Vec) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.entities[name]; ok {
		return fmt.Errorf("spawn %v: %w", name, environment.ErrExists)
	}

	if name == RobotEntity {
		a.robot = a.buildRobot(at)
		a.entities[name] = a.robot
	} else {
		a.entities[name] = a.buildMarker(at)
	}
	a.logger.Debug().Str("entity", name).Float64("x", at.X).
		Float64("y", at.Y).Msg("spawned")
	return nil
}

// Delete removes an entity from the arena
func (a *Arena) Delete(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	body, ok := a.entities[name]
	if !ok {
		return fmt.Errorf("delete %v: %w", name, environment.ErrNotFound)
	}

	a.world.DestroyBody(body)
	delete(a.entities, name)
	if body == a.robot {
		a.robot = nil
		a.twist = environment.Twist{}
	}
	return nil
}

// Teleport moves an entity, facing it along the +x axis and stopping
// it. Teleporting the robot publishes fresh frames.
func (a *Arena) Teleport(ctx context.Context, name string, at r2.Vec) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	body, ok := a.entities[name]
	if !ok {
		return fmt.Errorf("teleport %v: %w", name, environment.ErrNotFound)
	}

	body.SetTransform(box2d.MakeB2Vec2(at.X, at.Y), 0)
	body.SetLinearVelocity(box2d.MakeB2Vec2(0, 0))
	body.SetAngularVelocity(0)

	if body == a.robot {
		a.twist = environment.Twist{}
		a.publishLocked()
	}
	return nil
}

// Exists returns whether the named entity is in the arena
func (a *Arena) Exists(ctx context.Context, name string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	_, ok := a.entities[name]
	return ok, nil
}

// Run advances the world in real time at rate steps per second,
// publishing frames after each step, until ctx is done. While Run is
// active Actuate only updates the velocity command.
func (a *Arena) Run(ctx context.Context, rate float64) error {
	if rate <= 0 {
		return fmt.Errorf("run: rate should be positive\n\twant(>0)"+
			"\n\thave(%v)", rate)
	}

	a.mu.Lock()
	if a.running {
		a.mu.Unlock()
		return fmt.Errorf("run: arena already running")
	}
	a.running = true
	a.mu.Unlock()

	defer func() {
		a.mu.Lock()
		a.running = false
		a.mu.Unlock()
	}()

	ticker := time.NewTicker(time.Duration(float64(time.Second) / rate))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-ticker.C:
			a.mu.Lock()
			a.stepLocked(1 / rate)
			a.publishLocked()
			a.mu.Unlock()
		}
	}
}

// publishLocked publishes the current scan and pose of the robot
func (a *Arena) publishLocked() {
	if a.sensors == nil || a.robot == nil {
		return
	}
	stamp := epoch.Add(a.clock)

	pos := a.robot.GetPosition()
	angle := a.robot.GetAngle()
	a.sensors.Pose.Put(environment.PoseFrame{
		Position:        r2.Vec{X: pos.X, Y: pos.Y},
		Orientation:     environment.YawQuat(angle),
		AngularVelocity: a.robot.GetAngularVelocity(),
		Stamp:           stamp,
	})

	a.sensors.Scan.Put(environment.ScanFrame{
		Ranges: a.scanLocked(),
		Stamp:  stamp,
	})
}

// Pose returns the position and heading of the robot
func (a *Arena) Pose() (r2.Vec, float64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.robot == nil {
		return r2.Vec{}, 0, fmt.Errorf("pose: %w", environment.ErrNotFound)
	}
	pos := a.robot.GetPosition()
	return r2.Vec{X: pos.X, Y: pos.Y}, a.robot.GetAngle(), nil
}

// Collisions returns the number of contacts between the robot and
// the walls or obstacles so far
func (a *Arena) Collisions() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.collisions
}

// Clock returns the simulated time elapsed
func (a *Arena) Clock() time.Duration {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.clock
}
