package environment

import (
	"math"
	"testing"

	"github.com/samuelfneumann/navdqn/timestep"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"
)

func TestGoalSamplerExcludes(t *testing.T) {
	grid := []float64{-1.5, -0.5, 0.5, 1.5}
	g, err := NewGoalSampler(grid, 1)
	require.NoError(t, err)

	exclude := r2.Vec{X: 0.5, Y: -0.5}
	seen := make(map[r2.Vec]bool)
	for i := 0; i < 2000; i++ {
		at := g.Sample(exclude)
		require.NotEqual(t, exclude, at)
		require.Contains(t, grid, at.X)
		require.Contains(t, grid, at.Y)
		seen[at] = true
	}

	// Every other coordinate of the grid is eventually drawn
	require.Len(t, seen, len(grid)*len(grid)-1)
}

func TestGoalSamplerGridTooSmall(t *testing.T) {
	_, err := NewGoalSampler([]float64{1}, 1)
	require.Error(t, err)

	// Duplicates leave a single reachable coordinate
	_, err = NewGoalSampler([]float64{0.5, 0.5}, 1)
	require.Error(t, err)

	require.Error(t, ValidateGrid([]float64{0.5, math.NaN()}))
	require.NoError(t, ValidateGrid([]float64{0.5, 0.5, -0.5}))
}

func TestStepLimit(t *testing.T) {
	limit := NewStepLimit(3)

	step := timestep.New(timestep.Mid, 1, nil, 2)
	require.False(t, limit.End(&step))
	require.True(t, step.Mid())

	step = timestep.New(timestep.Mid, 1, nil, 3)
	require.True(t, limit.End(&step))
	require.True(t, step.Last())
	require.Equal(t, timestep.Timeout, step.EndReason)

	// A crash on the final step keeps its reason
	step = timestep.New(timestep.Mid, -2000, nil, 3)
	step.End(timestep.Crash)
	require.True(t, limit.End(&step))
	require.Equal(t, timestep.Crash, step.EndReason)
}
