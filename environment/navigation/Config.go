package navigation

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/samuelfneumann/navdqn/environment"
	"gonum.org/v1/gonum/spatial/r2"
)

// Entity names used with the Collaborator
const (
	RobotEntity = "robot"
	GoalEntity  = "goal"
)

// AuxiliaryFeatures is the number of features appended to the range
// readings in every state: angular velocity, goal distance and heading
// error.
const AuxiliaryFeatures = 3

// RewardMode determines the shaping reward given on steps where the
// robot neither crashes nor arrives at the goal
type RewardMode string

const (
	// Heading rewards facing the goal with directionScalar·cos(error)
	Heading RewardMode = "heading"

	// DistanceDelta rewards ±directionScalar for moving towards or
	// away from the goal
	DistanceDelta RewardMode = "distance"
)

// UnmarshalJSON implements the json.Unmarshaler interface
func (r *RewardMode) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	mode := RewardMode(strings.ToLower(s))
	switch mode {
	case Heading, DistanceDelta:
		*r = mode
		return nil
	}
	return fmt.Errorf("unmarshalJSON: unknown reward mode %q", s)
}

// Robot holds the collision thresholds of a robot model
type Robot struct {
	SideCollisionThreshold  float64
	FrontCollisionThreshold float64
}

// Robots holds the known robot models
var Robots = map[string]Robot{
	"burger": {SideCollisionThreshold: 0.13, FrontCollisionThreshold: 0.20},
	"waffle": {SideCollisionThreshold: 0.22, FrontCollisionThreshold: 0.22},
}

// Config implements a configuration of the navigation environment
type Config struct {
	// Robot names a preset in Robots. Non-zero thresholds below
	// override the preset.
	Robot                   string  `json:"robot"`
	SideCollisionThreshold  float64 `json:"side_collision_threshold"`
	FrontCollisionThreshold float64 `json:"front_collision_threshold"`

	// FrontReadings is the number of leading downsampled readings
	// compared against the front threshold
	FrontReadings int `json:"front_readings"`

	RawSamples   int     `json:"raw_samples"`
	ScanRatio    int     `json:"scan_ratio"`
	MaxScanRange float64 `json:"max_scan_range"`

	// Angular velocity of each action and the shared linear speed
	ActionSpace []float64 `json:"action_space"`
	LinearSpeed float64   `json:"linear_speed"`

	RewardMode           RewardMode `json:"reward_mode"`
	CrashPenalty         float64    `json:"crash_penalty"`
	GoalReward           float64    `json:"goal_reward"`
	DirectionScalar      float64    `json:"direction_scalar"`
	GoalArrivalThreshold float64    `json:"goal_arrival_threshold"`

	// Goals are placed on GoalGrid × GoalGrid. The first goal of a run
	// is never placed at InitialGoalExclude.
	GoalGrid           []float64 `json:"goal_grid"`
	InitialGoalExclude r2.Vec    `json:"initial_goal_exclude"`
	Start              r2.Vec    `json:"start"`

	// ControlPeriod is waited after each actuation and SettleDelay
	// after each reset. Lockstep simulators need neither.
	ControlPeriod environment.Duration `json:"control_period"`
	SettleDelay   environment.Duration `json:"settle_delay"`
}

// DefaultConfig returns the default navigation Config
func DefaultConfig() Config {
	return Config{
		Robot:                "burger",
		FrontReadings:        1,
		RawSamples:           360,
		ScanRatio:            12,
		MaxScanRange:         1.0,
		ActionSpace:          []float64{2.5, 1.25, 0, -1.25, -2.5},
		LinearSpeed:          0.12,
		RewardMode:           Heading,
		CrashPenalty:         -2000,
		GoalReward:           200,
		DirectionScalar:      1,
		GoalArrivalThreshold: 0.35,
		GoalGrid:             []float64{-1.5, -0.5, 0.5, 1.5},
		InitialGoalExclude:   r2.Vec{X: -1, Y: 0},
		Start:                r2.Vec{X: -1.5, Y: 0},
	}
}

// Thresholds returns the side and front collision thresholds in force
func (c Config) Thresholds() (side, front float64) {
	preset := Robots[strings.ToLower(c.Robot)]
	side, front = preset.SideCollisionThreshold, preset.FrontCollisionThreshold
	if c.SideCollisionThreshold > 0 {
		side = c.SideCollisionThreshold
	}
	if c.FrontCollisionThreshold > 0 {
		front = c.FrontCollisionThreshold
	}
	return side, front
}

// Readings returns the number of range readings in a state
func (c Config) Readings() int {
	return c.RawSamples / c.ScanRatio
}

// StateSize returns the length of every state vector
func (c Config) StateSize() int {
	return c.Readings() + AuxiliaryFeatures
}

// Validate checks a Config for errors
func (c Config) Validate() error {
	if c.RawSamples <= 0 || c.ScanRatio <= 0 {
		return fmt.Errorf("validate: raw samples and scan ratio should be "+
			"positive\n\twant(>0)\n\thave(%v, %v)", c.RawSamples, c.ScanRatio)
	}
	if c.RawSamples%c.ScanRatio != 0 {
		return fmt.Errorf("validate: scan ratio should evenly divide the "+
			"raw samples\n\twant(%v %% ratio == 0)\n\thave(ratio = %v)",
			c.RawSamples, c.ScanRatio)
	}
	if c.FrontReadings < 1 || c.FrontReadings >= c.Readings() {
		return fmt.Errorf("validate: front readings out of range"+
			"\n\twant([1, %v))\n\thave(%v)", c.Readings(), c.FrontReadings)
	}
	if c.MaxScanRange <= 0 {
		return fmt.Errorf("validate: max scan range should be positive"+
			"\n\twant(>0)\n\thave(%v)", c.MaxScanRange)
	}

	if _, ok := Robots[strings.ToLower(c.Robot)]; !ok &&
		(c.SideCollisionThreshold <= 0 || c.FrontCollisionThreshold <= 0) {
		return fmt.Errorf("validate: unknown robot %q without explicit "+
			"collision thresholds", c.Robot)
	}

	if len(c.ActionSpace) == 0 {
		return fmt.Errorf("validate: action space should not be empty")
	}

	switch c.RewardMode {
	case Heading, DistanceDelta:
	default:
		return fmt.Errorf("validate: unknown reward mode"+
			"\n\twant(%v or %v)\n\thave(%v)", Heading, DistanceDelta,
			c.RewardMode)
	}

	if c.GoalArrivalThreshold <= 0 {
		return fmt.Errorf("validate: goal arrival threshold should be "+
			"positive\n\twant(>0)\n\thave(%v)", c.GoalArrivalThreshold)
	}
	if err := environment.ValidateGrid(c.GoalGrid); err != nil {
		return fmt.Errorf("validate: %v", err)
	}
	if c.ControlPeriod < 0 || c.SettleDelay < 0 {
		return fmt.Errorf("validate: delays should be non-negative"+
			"\n\twant(>=0)\n\thave(%v, %v)", c.ControlPeriod, c.SettleDelay)
	}
	return nil
}

// Create creates a navigation environment which drives the robot
// through collab. Episodes are cut off after episodeSteps steps.
func (c Config) Create(collab environment.Collaborator, episodeSteps int,
	seed uint64, logger zerolog.Logger) (*Env, error) {
	return New(c, collab, episodeSteps, seed, logger)
}
