package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/spatial/r2"
)

// RenderCommand returns the command that saves a snapshot of the arena
func RenderCommand() *cobra.Command {
	var (
		out   string
		scale float64
		goal  []float64
		beams bool
	)

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Save a PNG of the arena with the robot at its start pose",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadConfig()
			if err != nil {
				return err
			}
			logger, err := newLogger(cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			arena, err := c.Sim.Create(c.Navigation.Start, logger)
			if err != nil {
				return err
			}

			if len(goal) != 0 {
				if len(goal) != 2 {
					return fmt.Errorf("render: goal should be x,y\n\t"+
						"have(%v)", goal)
				}
				at := r2.Vec{X: goal[0], Y: goal[1]}
				if err := arena.Spawn(context.Background(), "goal",
					at); err != nil {
					return err
				}
			}

			if err := arena.SavePNG(out, scale, beams); err != nil {
				return err
			}
			logger.Info().Str("path", out).Msg("saved arena")
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "arena.png", "output PNG file")
	cmd.Flags().Float64Var(&scale, "scale", 100, "pixels per metre")
	cmd.Flags().Float64SliceVar(&goal, "goal", nil, "goal position x,y")
	cmd.Flags().BoolVar(&beams, "beams", true, "draw the range sensor beams")
	return cmd
}
