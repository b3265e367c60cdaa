package network

import (
	"encoding/gob"
	"fmt"
	"io"

	"github.com/samuelfneumann/navdqn/agent"
	"gonum.org/v1/gonum/mat"
)

// Linear implements a linear action-value function approximator. Each
// state is extended with a bias unit and multiplied by a
// (features + 1) x actions weight matrix. Fit takes a single gradient
// descent step on the mean squared error.
type Linear struct {
	features int
	actions  int
	stepSize float64
	weights  *mat.Dense
	loss     float64
}

// NewLinear returns a new Linear approximator with all weights zero
func NewLinear(features, actions int, stepSize float64) (*Linear, error) {
	if features < 1 || actions < 1 {
		return nil, fmt.Errorf("newLinear: features and actions should be "+
			"positive\n\twant(>0)\n\thave(%v, %v)", features, actions)
	}
	if stepSize <= 0 {
		return nil, fmt.Errorf("newLinear: step size should be positive"+
			"\n\twant(>0)\n\thave(%v)", stepSize)
	}

	return &Linear{
		features: features,
		actions:  actions,
		stepSize: stepSize,
		weights:  mat.NewDense(features+1, actions, nil),
	}, nil
}

// withBias returns the rows of states with a trailing bias unit
func (l *Linear) withBias(states [][]float64) (*mat.Dense, error) {
	x := mat.NewDense(len(states), l.features+1, nil)
	for i, s := range states {
		if len(s) != l.features {
			return nil, fmt.Errorf("invalid number of features in state "+
				"%v\n\twant(%v)\n\thave(%v)", i, l.features, len(s))
		}
		x.SetRow(i, append(append(make([]float64, 0, l.features+1), s...), 1))
	}
	return x, nil
}

// Predict returns the predicted value of each action for a single state
func (l *Linear) Predict(state []float64) ([]float64, error) {
	x, err := l.withBias([][]float64{state})
	if err != nil {
		return nil, fmt.Errorf("predict: %v", err)
	}

	var pred mat.Dense
	pred.Mul(x, l.weights)
	return mat.Row(nil, 0, &pred), nil
}

// Fit takes one gradient descent step on the mean squared error
// between the predictions for states and targets
func (l *Linear) Fit(states, targets [][]float64) error {
	if len(states) == 0 || len(states) != len(targets) {
		return fmt.Errorf("fit: invalid batch\n\twant(%v targets)"+
			"\n\thave(%v)", len(states), len(targets))
	}

	x, err := l.withBias(states)
	if err != nil {
		return fmt.Errorf("fit: %v", err)
	}

	y := mat.NewDense(len(targets), l.actions, nil)
	for i, t := range targets {
		if len(t) != l.actions {
			return fmt.Errorf("fit: invalid number of targets in row %v"+
				"\n\twant(%v)\n\thave(%v)", i, l.actions, len(t))
		}
		y.SetRow(i, t)
	}

	// δ = XW - Y
	var delta mat.Dense
	delta.Mul(x, l.weights)
	delta.Sub(&delta, y)

	n := float64(len(states) * l.actions)
	norm := mat.Norm(&delta, 2)
	l.loss = norm * norm / n

	// ∇W = 2/n Xᵀδ
	var grad mat.Dense
	grad.Mul(x.T(), &delta)
	grad.Scale(2*l.stepSize/n, &grad)
	l.weights.Sub(l.weights, &grad)

	return nil
}

// Loss returns the loss computed by the last call to Fit
func (l *Linear) Loss() float64 {
	return l.loss
}

// Weights returns a copy of the weights as a single row-major slice
func (l *Linear) Weights() [][]float64 {
	raw := l.weights.RawMatrix()
	return [][]float64{append([]float64(nil), raw.Data...)}
}

// SetWeights sets the weights to a copy of weights
func (l *Linear) SetWeights(weights [][]float64) error {
	size := (l.features + 1) * l.actions
	if len(weights) != 1 || len(weights[0]) != size {
		return fmt.Errorf("setWeights: invalid weights\n\twant(1 x %v)"+
			"\n\thave(%v tensors)", size, len(weights))
	}

	l.weights = mat.NewDense(l.features+1, l.actions,
		append([]float64(nil), weights[0]...))
	return nil
}

// Clone returns an independent copy of the approximator
func (l *Linear) Clone() (agent.ValueFunction, error) {
	clone, err := NewLinear(l.features, l.actions, l.stepSize)
	if err != nil {
		return nil, fmt.Errorf("clone: %v", err)
	}
	clone.weights.Copy(l.weights)
	return clone, nil
}

// Features returns the number of inputs
func (l *Linear) Features() int {
	return l.features
}

// Actions returns the number of outputs
func (l *Linear) Actions() int {
	return l.actions
}

type linearSnapshot struct {
	Features int
	Actions  int
	Weights  []float64
}

// Save writes the weights to w
func (l *Linear) Save(w io.Writer) error {
	snapshot := linearSnapshot{
		Features: l.features,
		Actions:  l.actions,
		Weights:  l.Weights()[0],
	}
	if err := gob.NewEncoder(w).Encode(snapshot); err != nil {
		return fmt.Errorf("save: could not encode linear weights: %v", err)
	}
	return nil
}

// Load reads weights saved by Save
func (l *Linear) Load(r io.Reader) error {
	var snapshot linearSnapshot
	if err := gob.NewDecoder(r).Decode(&snapshot); err != nil {
		return fmt.Errorf("load: could not decode linear weights: %v", err)
	}

	if snapshot.Features != l.features || snapshot.Actions != l.actions {
		return fmt.Errorf("load: incompatible input or output width"+
			"\n\twant(%v, %v)\n\thave(%v, %v)", l.features, l.actions,
			snapshot.Features, snapshot.Actions)
	}
	return l.SetWeights([][]float64{snapshot.Weights})
}
