package sim

import (
	"fmt"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/spatial/r2"
)

// Obstacle is an axis-aligned box in the arena
type Obstacle struct {
	Center     r2.Vec  `json:"center"`
	HalfWidth  float64 `json:"half_width"`
	HalfHeight float64 `json:"half_height"`
}

// Config implements a configuration of an Arena
type Config struct {
	// Walls enclose the square [-HalfExtent, HalfExtent]²
	HalfExtent float64    `json:"half_extent"`
	Obstacles  []Obstacle `json:"obstacles"`

	RobotRadius float64 `json:"robot_radius"`
	GoalRadius  float64 `json:"goal_radius"`

	// Range sensor
	Beams    int     `json:"beams"`
	MaxRange float64 `json:"max_range"`

	// Physics. Each actuation in lockstep mode advances the world by
	// SubSteps steps of length TimeStep.
	TimeStep           float64 `json:"time_step"`
	SubSteps           int     `json:"sub_steps"`
	VelocityIterations int     `json:"velocity_iterations"`
	PositionIterations int     `json:"position_iterations"`
}

// DefaultConfig returns the default arena: a 4m × 4m room with four
// square pillars and a robot the size of a small differential-drive
// base carrying a 360 beam range sensor.
func DefaultConfig() Config {
	pillar := func(x, y float64) Obstacle {
		return Obstacle{
			Center:     r2.Vec{X: x, Y: y},
			HalfWidth:  0.15,
			HalfHeight: 0.15,
		}
	}

	return Config{
		HalfExtent: 2.0,
		Obstacles: []Obstacle{
			pillar(-1, -1), pillar(-1, 1), pillar(1, -1), pillar(1, 1),
		},
		RobotRadius:        0.105,
		GoalRadius:         0.15,
		Beams:              360,
		MaxRange:           3.5,
		TimeStep:           0.05,
		SubSteps:           4,
		VelocityIterations: 6,
		PositionIterations: 2,
	}
}

// Validate checks a Config for errors
func (c Config) Validate() error {
	if c.HalfExtent <= 0 {
		return fmt.Errorf("validate: half extent should be positive"+
			"\n\twant(>0)\n\thave(%v)", c.HalfExtent)
	}
	if c.RobotRadius <= 0 || c.GoalRadius <= 0 {
		return fmt.Errorf("validate: radii should be positive"+
			"\n\twant(>0)\n\thave(%v, %v)", c.RobotRadius, c.GoalRadius)
	}
	if c.Beams < 1 {
		return fmt.Errorf("validate: beams should be positive"+
			"\n\twant(>0)\n\thave(%v)", c.Beams)
	}
	if c.MaxRange <= 0 {
		return fmt.Errorf("validate: max range should be positive"+
			"\n\twant(>0)\n\thave(%v)", c.MaxRange)
	}
	if c.TimeStep <= 0 || c.SubSteps < 1 {
		return fmt.Errorf("validate: time step and sub steps should be "+
			"positive\n\twant(>0)\n\thave(%v, %v)", c.TimeStep, c.SubSteps)
	}
	if c.VelocityIterations < 1 || c.PositionIterations < 1 {
		return fmt.Errorf("validate: solver iterations should be positive"+
			"\n\twant(>0)\n\thave(%v, %v)", c.VelocityIterations,
			c.PositionIterations)
	}
	for i, o := range c.Obstacles {
		if o.HalfWidth <= 0 || o.HalfHeight <= 0 {
			return fmt.Errorf("validate: obstacle %v has non-positive "+
				"size (%v, %v)", i, o.HalfWidth, o.HalfHeight)
		}
	}
	return nil
}

// Create returns a new Arena with the robot placed at start
func (c Config) Create(start r2.Vec, logger zerolog.Logger) (*Arena, error) {
	return New(c, start, logger)
}
