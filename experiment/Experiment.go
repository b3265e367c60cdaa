// Package experiment implements the training loop that drives a
// learner and its policy through episodes of an environment, tracks
// per-episode data and persists the results of a run.
package experiment

import (
	"fmt"

	ts "github.com/samuelfneumann/navdqn/timestep"
)

// State is the state of a Trainer
type State int

const (
	Idle State = iota
	EpisodeRunning
	EpisodeDone
	TrainingComplete
)

func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case EpisodeRunning:
		return "EpisodeRunning"
	case EpisodeDone:
		return "EpisodeDone"
	case TrainingComplete:
		return "TrainingComplete"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// EpisodeRecord summarises a finished episode
type EpisodeRecord struct {
	Episode      int
	Score        float64
	Steps        int
	EndReason    ts.EndReason
	Epsilon      float64 // ε in force during the episode
	GoalsReached int
	Updates      int // Learner updates made during the episode
}

// Config implements a configuration of a training run
type Config struct {
	Episodes      int `json:"episodes"`
	EpisodeLength int `json:"episode_length"`

	// Number of episodes in each moving average of the scores
	MovingAverageWindow int `json:"moving_average_window"`

	// Number of final episodes whose mean score summarises the run
	FinalSlice int `json:"final_slice"`

	// Episodes between checkpoints of the learned parameters, 0 to
	// disable checkpointing
	CheckpointEvery int `json:"checkpoint_every"`

	OutDir      string `json:"out_dir"`
	SessionName string `json:"session_name"`

	// When LoadModel is set the approximator is loaded from LoadPath
	// before training
	LoadModel bool   `json:"load_model"`
	LoadPath  string `json:"load_path"`

	// Pixels per metre of the arena snapshot, 0 to skip it
	RenderScale float64 `json:"render_scale"`
}

// DefaultConfig returns the default training run Config
func DefaultConfig() Config {
	return Config{
		Episodes:            500,
		EpisodeLength:       350,
		MovingAverageWindow: 25,
		FinalSlice:          50,
		OutDir:              "dqnmodels",
		SessionName:         "session",
		RenderScale:         100,
	}
}

// Validate checks a Config's fields for correctness
func (c Config) Validate() error {
	if c.Episodes < 1 || c.EpisodeLength < 1 {
		return fmt.Errorf("validate: episodes and episode length should "+
			"be positive\n\twant(>0)\n\thave(%v, %v)", c.Episodes,
			c.EpisodeLength)
	}
	if c.MovingAverageWindow < 1 || c.FinalSlice < 1 {
		return fmt.Errorf("validate: moving average window and final "+
			"slice should be positive\n\twant(>0)\n\thave(%v, %v)",
			c.MovingAverageWindow, c.FinalSlice)
	}
	if c.CheckpointEvery < 0 || c.RenderScale < 0 {
		return fmt.Errorf("validate: checkpoint interval and render "+
			"scale should be non-negative\n\twant(>=0)\n\thave(%v, %v)",
			c.CheckpointEvery, c.RenderScale)
	}
	if c.LoadModel && c.LoadPath == "" {
		return fmt.Errorf("validate: load model requires a load path")
	}
	return nil
}

// Slice returns the number of final episodes summarised. A FinalSlice
// covering the whole run is halved.
func (c Config) Slice() int {
	if c.FinalSlice >= c.Episodes {
		if c.Episodes/2 < 1 {
			return 1
		}
		return c.Episodes / 2
	}
	return c.FinalSlice
}
