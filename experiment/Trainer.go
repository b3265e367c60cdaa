package experiment

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/samuelfneumann/navdqn/agent"
	"github.com/samuelfneumann/navdqn/environment"
	"github.com/samuelfneumann/navdqn/experiment/checkpointer"
	"github.com/samuelfneumann/navdqn/experiment/tracker"
	"github.com/samuelfneumann/navdqn/expreplay"
	ts "github.com/samuelfneumann/navdqn/timestep"
	"github.com/samuelfneumann/navdqn/utils/progressbar"
	"gonum.org/v1/gonum/stat"
)

// Artifact filenames written by Save
const (
	ScoresFile   = "scores.bin"
	AveragesFile = "averages.bin"
	LengthsFile  = "lengths.bin"
	GoalsFile    = "goals.bin"
	ScoresCSV    = "scores.csv"
)

// Explorer is a Policy with a decaying exploration rate
type Explorer interface {
	agent.Policy
	Decay()
	Epsilon() float64
}

// Learner is an agent.Learner that owns its replay buffer
type Learner interface {
	agent.Learner
	Replay() expreplay.ExperienceReplayer
	Updates() int
}

// Trainer runs the training loop. Each episode the environment is
// reset and stepped with actions from the policy until the episode
// ends; every transition is given to the learner, which is stepped
// once the replay buffer holds more than a batch. Exploration decays
// once per finished episode.
type Trainer struct {
	config  Config
	env     environment.Environment
	policy  Explorer
	learner Learner

	state   State
	episode int
	records []EpisodeRecord

	returns  *tracker.Return
	lengths  *tracker.EpisodeLength
	goals    *tracker.GoalsReached
	averages *tracker.MovingAverage
	trackers []tracker.Tracker

	checkpointers []checkpointer.Checkpointer
	bar           *progressbar.ProgressBar

	dir    string
	logger zerolog.Logger
}

// NewTrainer returns a new Trainer whose trackers save to dir
func NewTrainer(c Config, dir string, env environment.Environment,
	policy Explorer, learner Learner, logger zerolog.Logger) (*Trainer,
	error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("newTrainer: %v", err)
	}
	if env == nil || policy == nil || learner == nil {
		return nil, fmt.Errorf("newTrainer: nil environment, policy or " +
			"learner")
	}

	returns := tracker.NewReturn(filepath.Join(dir, ScoresFile))
	lengths := tracker.NewEpisodeLength(filepath.Join(dir, LengthsFile))
	goals := tracker.NewGoalsReached(filepath.Join(dir, GoalsFile))
	averages := tracker.NewMovingAverage(returns, c.MovingAverageWindow,
		filepath.Join(dir, AveragesFile))

	return &Trainer{
		config:   c,
		env:      env,
		policy:   policy,
		learner:  learner,
		state:    Idle,
		returns:  returns,
		lengths:  lengths,
		goals:    goals,
		averages: averages,
		trackers: []tracker.Tracker{returns, lengths, goals, averages},
		dir:      dir,
		logger:   logger.With().Str("component", "trainer").Logger(),
	}, nil
}

// Register adds a Tracker that is sent every TimeStep of the run
func (t *Trainer) Register(tr tracker.Tracker) {
	t.trackers = append(t.trackers, tr)
}

// AddCheckpointer adds a Checkpointer called after every episode
func (t *Trainer) AddCheckpointer(c checkpointer.Checkpointer) {
	t.checkpointers = append(t.checkpointers, c)
}

// ShowProgress displays a progress bar over the episodes on out
func (t *Trainer) ShowProgress(out io.Writer) {
	t.bar = progressbar.New(out, 40, t.config.Episodes)
}

// State returns the state of the training loop
func (t *Trainer) State() State {
	return t.state
}

// Records returns the records of all finished episodes
func (t *Trainer) Records() []EpisodeRecord {
	return append([]EpisodeRecord(nil), t.records...)
}

// Scores returns the score of each finished episode
func (t *Trainer) Scores() []float64 {
	return t.returns.Data()
}

// Averages returns the moving averages of the scores
func (t *Trainer) Averages() []float64 {
	return t.averages.Data()
}

// track sends step to all trackers
func (t *Trainer) track(step ts.TimeStep) {
	for _, tr := range t.trackers {
		tr.Track(step)
	}
}

// RunEpisode runs a single episode and returns its record
func (t *Trainer) RunEpisode(ctx context.Context) (EpisodeRecord, error) {
	if t.state == TrainingComplete {
		return EpisodeRecord{}, fmt.Errorf("runEpisode: training complete")
	}
	if err := ctx.Err(); err != nil {
		return EpisodeRecord{}, fmt.Errorf("runEpisode: %w", err)
	}
	t.state = EpisodeRunning

	record := EpisodeRecord{
		Episode: t.episode,
		Epsilon: t.policy.Epsilon(),
	}
	updates := t.learner.Updates()

	step, err := t.env.Reset(ctx)
	if err != nil {
		return record, fmt.Errorf("runEpisode: could not reset: %w", err)
	}
	t.track(step)

	replay := t.learner.Replay()
	for n := 0; n < t.config.EpisodeLength && !step.Last(); n++ {
		if err := ctx.Err(); err != nil {
			return record, fmt.Errorf("runEpisode: %w", err)
		}

		action, err := t.policy.SelectAction(step.Observation)
		if err != nil {
			return record, fmt.Errorf("runEpisode: %v", err)
		}

		next, err := t.env.Step(ctx, action)
		if err != nil {
			return record, fmt.Errorf("runEpisode: could not step: %w", err)
		}
		if n+1 == t.config.EpisodeLength && !next.Last() {
			next.End(ts.Timeout)
		}

		t.learner.Observe(ts.FromSteps(step, action, next))
		if replay.Len() > replay.BatchSize() {
			if err := t.learner.Step(); err != nil {
				return record, fmt.Errorf("runEpisode: %v", err)
			}
		}

		record.Score += next.Reward
		if next.GoalReached {
			record.GoalsReached++
		}
		t.track(next)
		step = next
	}

	t.learner.EndEpisode()
	t.policy.Decay()

	record.Steps = step.Number
	record.EndReason = step.EndReason
	record.Updates = t.learner.Updates() - updates
	t.records = append(t.records, record)

	for _, c := range t.checkpointers {
		path, err := c.Checkpoint(t.episode)
		if err != nil {
			return record, fmt.Errorf("runEpisode: %v", err)
		}
		if path != "" {
			t.logger.Debug().Str("path", path).Msg("checkpoint")
		}
	}

	t.logger.Info().
		Int("episode", record.Episode).
		Float64("score", record.Score).
		Int("steps", record.Steps).
		Stringer("end", record.EndReason).
		Float64("epsilon", record.Epsilon).
		Int("goals", record.GoalsReached).
		Int("updates", record.Updates).
		Msg("episode finished")

	t.episode++
	if t.episode >= t.config.Episodes {
		t.state = TrainingComplete
	} else {
		t.state = EpisodeDone
	}

	if t.bar != nil {
		t.bar.Increment()
		t.bar.Display(fmt.Sprintf("episode %v score %.2f", record.Episode,
			record.Score))
	}
	return record, nil
}

// Run runs episodes until all have finished or an error occurs
func (t *Trainer) Run(ctx context.Context) ([]EpisodeRecord, error) {
	if t.bar != nil {
		defer t.bar.Close()
	}

	for t.state != TrainingComplete {
		if _, err := t.RunEpisode(ctx); err != nil {
			t.logger.Error().Err(err).Int("episode", t.episode).
				Msg("training aborted")
			return t.Records(), fmt.Errorf("run: %w", err)
		}
	}

	t.logger.Info().
		Float64("mean", stat.Mean(t.Scores(), nil)).
		Float64("final", t.FinalSliceMean()).
		Int("slice", t.config.Slice()).
		Msg("training complete")
	return t.Records(), nil
}

// FinalSliceMean returns the mean score of the final episodes
// summarising the run, or of all episodes if fewer have finished
func (t *Trainer) FinalSliceMean() float64 {
	scores := t.Scores()
	if len(scores) == 0 {
		return 0
	}

	slice := t.config.Slice()
	if slice > len(scores) {
		slice = len(scores)
	}
	return stat.Mean(scores[len(scores)-slice:], nil)
}

// Save saves the data of all trackers and a CSV of the scores with
// their moving averages
func (t *Trainer) Save() error {
	for _, tr := range t.trackers {
		if err := tr.Save(); err != nil {
			return fmt.Errorf("save: %v", err)
		}
	}

	err := tracker.WriteCSV(filepath.Join(t.dir, ScoresCSV),
		tracker.Column{Name: "score", Values: t.Scores()},
		tracker.Column{
			Name:   "average",
			Offset: t.averages.Window() - 1,
			Values: t.Averages(),
		},
	)
	if err != nil {
		return fmt.Errorf("save: %v", err)
	}
	return nil
}
