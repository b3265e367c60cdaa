package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/samuelfneumann/navdqn/agent"
	"github.com/samuelfneumann/navdqn/agent/policy"
	"github.com/samuelfneumann/navdqn/config"
	"github.com/samuelfneumann/navdqn/environment"
	"github.com/samuelfneumann/navdqn/experiment"
	"github.com/samuelfneumann/navdqn/sim"
	"github.com/spf13/cobra"
)

type trainFlags struct {
	episodes int
	seed     uint64
	outDir   string
	load     string
	progress bool
}

// TrainCommand returns the command that runs a training session
func TrainCommand() *cobra.Command {
	var flags trainFlags

	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train in the simulated arena and save the session artifacts",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadConfig()
			if err != nil {
				return err
			}

			if cmd.Flags().Changed("episodes") {
				c.Experiment.Episodes = flags.episodes
			}
			if cmd.Flags().Changed("seed") {
				c.Seed = flags.seed
			}
			if flags.outDir != "" {
				c.Experiment.OutDir = flags.outDir
			}
			if flags.load != "" {
				c.Experiment.LoadModel = true
				c.Experiment.LoadPath = flags.load
			}
			if err := c.Validate(); err != nil {
				return err
			}

			logger, err := newLogger(os.Stderr)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt,
				syscall.SIGTERM)
			defer stop()

			return train(ctx, c, flags.progress, logger)
		},
	}

	cmd.Flags().IntVarP(&flags.episodes, "episodes", "e", 0,
		"number of episodes, overrides the configuration")
	cmd.Flags().Uint64Var(&flags.seed, "seed", 0,
		"random seed, overrides the configuration")
	cmd.Flags().StringVarP(&flags.outDir, "out", "o", "",
		"directory to create the session directory in")
	cmd.Flags().StringVar(&flags.load, "load", "",
		"model file to resume training from")
	cmd.Flags().BoolVar(&flags.progress, "progress", false,
		"show a progress bar instead of per-episode logs")
	return cmd
}

// session holds the components of a training run
type session struct {
	arena   *sim.Arena
	valueFn agent.Persistent
	trainer *experiment.Trainer
	dir     *experiment.Session
}

// build creates and wires every component of a training run
func build(c config.Config, logger zerolog.Logger) (*session, error) {
	arena, err := c.Sim.Create(c.Navigation.Start, logger)
	if err != nil {
		return nil, fmt.Errorf("build: %v", err)
	}

	collab, err := environment.WithRetry(arena, c.Retry, logger)
	if err != nil {
		return nil, fmt.Errorf("build: %v", err)
	}

	env, err := c.Navigation.Create(collab, c.Experiment.EpisodeLength,
		c.Seed, logger)
	if err != nil {
		return nil, fmt.Errorf("build: %v", err)
	}

	valueFn, err := c.Approximator.Create(env.ObservationSize(),
		env.Actions(), c.Replay.BatchSize)
	if err != nil {
		return nil, fmt.Errorf("build: %v", err)
	}
	if err := c.CheckWidth(valueFn); err != nil {
		return nil, err
	}

	if c.Experiment.LoadModel {
		if err := experiment.LoadModel(c.Experiment.LoadPath,
			valueFn); err != nil {
			return nil, &config.Error{Op: "build",
				Field: "experiment.load_path", Err: err}
		}
		logger.Info().Str("path", c.Experiment.LoadPath).Msg("loaded model")
	}

	replay, err := c.Replay.Create(c.Seed + 1)
	if err != nil {
		return nil, fmt.Errorf("build: %v", err)
	}

	learner, err := c.DeepQ.Create(valueFn, replay, logger)
	if err != nil {
		return nil, fmt.Errorf("build: %v", err)
	}

	explorer, err := policy.NewEGreedy(c.Epsilon, valueFn, c.Seed+2)
	if err != nil {
		return nil, fmt.Errorf("build: %v", err)
	}

	dir, err := experiment.NewSession(c.Experiment.OutDir,
		c.Experiment.SessionName, time.Now())
	if err != nil {
		return nil, fmt.Errorf("build: %v", err)
	}

	trainer, err := experiment.NewTrainer(c.Experiment, dir.Dir(), env,
		explorer, learner, logger)
	if err != nil {
		return nil, fmt.Errorf("build: %v", err)
	}
	if c.Experiment.CheckpointEvery > 0 {
		trainer.AddCheckpointer(dir.Checkpointer(c.Experiment.CheckpointEvery,
			valueFn))
	}

	return &session{
		arena:   arena,
		valueFn: valueFn,
		trainer: trainer,
		dir:     dir,
	}, nil
}

// train runs a training session and saves its artifacts. Tracked data
// is saved even when training is aborted.
func train(ctx context.Context, c config.Config, progress bool,
	logger zerolog.Logger) error {
	s, err := build(c, logger)
	if err != nil {
		return err
	}
	logger.Info().Str("session", s.dir.Dir()).Msg("starting training")

	data, err := c.JSON()
	if err != nil {
		return err
	}
	if err := s.dir.WriteFile(experiment.ConfigFile, data); err != nil {
		return err
	}

	params, err := c.Dump()
	if err != nil {
		return err
	}
	if err := s.dir.WriteFile(experiment.ParamsFile,
		[]byte(params)); err != nil {
		return err
	}

	if progress {
		s.trainer.ShowProgress(os.Stdout)
	}

	_, runErr := s.trainer.Run(ctx)

	if err := s.trainer.Save(); err != nil {
		return err
	}
	if runErr != nil {
		return runErr
	}

	if err := s.dir.SaveModel(s.valueFn); err != nil {
		return err
	}
	if c.Experiment.RenderScale > 0 {
		err := s.arena.SavePNG(s.dir.Path(experiment.ArenaFile),
			c.Experiment.RenderScale, true)
		if err != nil {
			return err
		}
	}

	logger.Info().
		Str("session", s.dir.Dir()).
		Float64("final", s.trainer.FinalSliceMean()).
		Msg("saved session")
	return nil
}
