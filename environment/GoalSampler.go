package environment

import (
	"fmt"

	"github.com/samuelfneumann/navdqn/utils/floatutils"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/stat/distuv"
)

// GoalSampler returns goal coordinates sampled uniformly from a
// discrete grid, never returning the coordinate it is told to avoid.
// Each axis is sampled from its own categorical distribution.
type GoalSampler struct {
	grid []float64
	x, y distuv.Categorical
}

// NewGoalSampler returns a new GoalSampler sampling each axis
// uniformly from grid
func NewGoalSampler(grid []float64, seed uint64) (*GoalSampler, error) {
	if err := ValidateGrid(grid); err != nil {
		return nil, fmt.Errorf("newGoalSampler: %v", err)
	}

	source := rand.NewSource(seed)

	// Create the weights for the uniform categorical distribution
	weights := make([]float64, len(grid))
	for i := range weights {
		weights[i] = 1.0 / float64(len(weights))
	}

	g := make([]float64, len(grid))
	copy(g, grid)

	return &GoalSampler{
		grid: g,
		x:    distuv.NewCategorical(weights, source),
		y:    distuv.NewCategorical(weights, source),
	}, nil
}

// ValidateGrid returns an error unless grid holds at least two
// distinct finite values. With fewer, every coordinate but one is
// unreachable and Sample could not return once that one is excluded.
func ValidateGrid(grid []float64) error {
	distinct := make(map[float64]struct{}, len(grid))
	for _, v := range grid {
		if !floatutils.IsFinite(v) {
			return fmt.Errorf("validateGrid: non-finite grid value"+
				"\n\thave(%v)", grid)
		}
		distinct[v] = struct{}{}
	}
	if len(distinct) < 2 {
		return fmt.Errorf("validateGrid: grid too small to exclude a "+
			"coordinate\n\twant(>=2 distinct values)\n\thave(%v)", grid)
	}
	return nil
}

// Sample returns a grid coordinate different from exclude. Samples
// equal to exclude are rejected and drawn again.
func (g *GoalSampler) Sample(exclude r2.Vec) r2.Vec {
	for {
		at := r2.Vec{
			X: g.grid[int(g.x.Rand())],
			Y: g.grid[int(g.y.Rand())],
		}
		if at != exclude {
			return at
		}
	}
}

// Grid returns the values each axis is sampled from
func (g *GoalSampler) Grid() []float64 {
	grid := make([]float64, len(g.grid))
	copy(grid, g.grid)
	return grid
}
