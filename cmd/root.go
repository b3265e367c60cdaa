// Package cmd implements the navdqn command line interface
package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/samuelfneumann/navdqn/config"
	"github.com/spf13/cobra"
)

var (
	configPath string
	logLevel   string
)

// NewRootCommand returns the navdqn command with all subcommands
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "navdqn",
		Short:         "Train a DQN navigation policy for a range-sensing robot",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"JSON configuration file, defaults are used when empty")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info",
		"log level (trace, debug, info, warn, error)")

	root.AddCommand(TrainCommand())
	root.AddCommand(ConfigCommand())
	root.AddCommand(RenderCommand())
	return root
}

// Execute runs the root command and returns the exit code
func Execute() int {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "navdqn: %v\n", err)
		if config.IsConfigurationError(err) {
			return 2
		}
		return 1
	}
	return 0
}

// newLogger returns a console logger at the level given by --log-level
func newLogger(out io.Writer) (zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(logLevel)
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("invalid log level %q: %v",
			logLevel, err)
	}

	return zerolog.New(zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: time.Kitchen,
	}).Level(level).With().Timestamp().Logger(), nil
}

// loadConfig returns the configuration given by --config
func loadConfig() (config.Config, error) {
	if configPath == "" {
		c := config.Default()
		return c, c.Validate()
	}
	return config.Load(configPath)
}
