package solver

import (
	"fmt"

	G "gorgonia.org/gorgonia"
)

// RMSPropConfig configures RMSProp. Clip <= 0 disables gradient
// clipping.
type RMSPropConfig struct {
	StepSize float64
	Rho      float64
	Epsilon  float64
	Clip     float64
}

// NewDefaultRMSProp returns RMSProp with a decay rate of 0.9, a
// smoothing term of 1e-7 and no clipping
func NewDefaultRMSProp(stepSize float64) (*Solver, error) {
	return New(RMSPropConfig{StepSize: stepSize, Rho: 0.9, Epsilon: 1e-7})
}

func (r RMSPropConfig) Type() Type { return RMSProp }

func (r RMSPropConfig) Validate() error {
	if err := validateStepSize(r.StepSize); err != nil {
		return err
	}
	if r.Rho <= 0 || r.Rho >= 1 {
		return fmt.Errorf("validate: rho out of range\n\twant((0, 1))"+
			"\n\thave(%v)", r.Rho)
	}
	return nil
}

func (r RMSPropConfig) Create() G.Solver {
	return G.NewRMSPropSolver(withClip([]G.SolverOpt{
		G.WithLearnRate(r.StepSize),
		G.WithRho(r.Rho),
		G.WithEps(r.Epsilon),
		G.WithBatchSize(1),
	}, r.Clip)...)
}

// AdamConfig configures Adam
type AdamConfig struct {
	StepSize float64
	Beta1    float64
	Beta2    float64
	Epsilon  float64
}

// NewDefaultAdam returns Adam with betas of 0.9 and 0.999 and a
// smoothing term of 1e-8
func NewDefaultAdam(stepSize float64) (*Solver, error) {
	return New(AdamConfig{
		StepSize: stepSize,
		Beta1:    0.9,
		Beta2:    0.999,
		Epsilon:  1e-8,
	})
}

func (a AdamConfig) Type() Type { return Adam }

func (a AdamConfig) Validate() error {
	if err := validateStepSize(a.StepSize); err != nil {
		return err
	}
	if a.Beta1 < 0 || a.Beta1 >= 1 || a.Beta2 < 0 || a.Beta2 >= 1 {
		return fmt.Errorf("validate: betas out of range\n\twant([0, 1))"+
			"\n\thave(%v, %v)", a.Beta1, a.Beta2)
	}
	return nil
}

func (a AdamConfig) Create() G.Solver {
	return G.NewAdamSolver(
		G.WithLearnRate(a.StepSize),
		G.WithBeta1(a.Beta1),
		G.WithBeta2(a.Beta2),
		G.WithEps(a.Epsilon),
		G.WithBatchSize(1),
	)
}

// VanillaConfig configures plain gradient descent. Clip <= 0 disables
// gradient clipping.
type VanillaConfig struct {
	StepSize float64
	Clip     float64
}

func (v VanillaConfig) Type() Type      { return Vanilla }
func (v VanillaConfig) Validate() error { return validateStepSize(v.StepSize) }

func (v VanillaConfig) Create() G.Solver {
	return G.NewVanillaSolver(withClip([]G.SolverOpt{
		G.WithLearnRate(v.StepSize),
		G.WithBatchSize(1),
	}, v.Clip)...)
}
