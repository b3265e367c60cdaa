package policy

import (
	"errors"
	"math"
	"testing"

	"github.com/samuelfneumann/navdqn/agent"
	"github.com/stretchr/testify/require"
)

// fixedValues predicts the same action values for every state
type fixedValues struct {
	values []float64
	err    error
}

func (f *fixedValues) Predict([]float64) ([]float64, error) {
	return append([]float64(nil), f.values...), f.err
}
func (f *fixedValues) Fit(_, _ [][]float64) error   { return nil }
func (f *fixedValues) Weights() [][]float64         { return nil }
func (f *fixedValues) SetWeights([][]float64) error { return nil }
func (f *fixedValues) Features() int                { return 1 }
func (f *fixedValues) Actions() int                 { return len(f.values) }
func (f *fixedValues) Clone() (agent.ValueFunction, error) {
	return &fixedValues{values: f.values}, nil
}

func TestDecayFloors(t *testing.T) {
	p, err := NewEGreedy(DefaultConfig(), &fixedValues{values: []float64{0, 1}},
		1)
	require.NoError(t, err)
	require.Equal(t, 1.0, p.Epsilon())

	for i := 0; i < 100; i++ {
		p.Decay()
	}
	require.InDelta(t, math.Pow(0.992, 100), p.Epsilon(), 1e-12)

	for i := 0; i < 400; i++ {
		p.Decay()
	}
	require.Equal(t, 0.05, p.Epsilon())
}

func TestGreedySelection(t *testing.T) {
	c := Config{Initial: 0, Min: 0, Decay: 1}
	p, err := NewEGreedy(c, &fixedValues{values: []float64{1, 3, -2, 3, 0}},
		7)
	require.NoError(t, err)

	seen := map[int]int{}
	for i := 0; i < 500; i++ {
		a, err := p.SelectAction([]float64{0})
		require.NoError(t, err)
		seen[a]++
	}

	// Ties between actions 1 and 3 are broken at random
	require.Len(t, seen, 2)
	require.Greater(t, seen[1], 150)
	require.Greater(t, seen[3], 150)
}

func TestRandomSelection(t *testing.T) {
	c := Config{Initial: 1, Min: 1, Decay: 1}
	p, err := NewEGreedy(c, &fixedValues{values: []float64{0, 0, 9, 0, 0}},
		3)
	require.NoError(t, err)

	counts := make([]int, 5)
	for i := 0; i < 5000; i++ {
		a, err := p.SelectAction([]float64{0})
		require.NoError(t, err)
		counts[a]++
	}
	for a, n := range counts {
		require.InDelta(t, 1000, n, 150, "action %v", a)
	}

	// Evaluation ignores ε
	for i := 0; i < 10; i++ {
		a, err := p.Greedy([]float64{0})
		require.NoError(t, err)
		require.Equal(t, 2, a)
	}
}

func TestPredictError(t *testing.T) {
	c := Config{Initial: 0, Min: 0, Decay: 1}
	p, err := NewEGreedy(c, &fixedValues{values: []float64{1},
		err: errors.New("broken")}, 1)
	require.NoError(t, err)

	_, err = p.SelectAction([]float64{0})
	require.Error(t, err)
}

func TestSetEpsilon(t *testing.T) {
	p, err := NewEGreedy(DefaultConfig(), &fixedValues{values: []float64{0}},
		1)
	require.NoError(t, err)

	require.NoError(t, p.SetEpsilon(0.5))
	require.Equal(t, 0.5, p.Epsilon())
	require.Error(t, p.SetEpsilon(0.01))
	require.Error(t, p.SetEpsilon(1.5))
}

func TestConfigValidate(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())
	require.Error(t, Config{Initial: 0.1, Min: 0.2, Decay: 0.9}.Validate())
	require.Error(t, Config{Initial: 1.1, Min: 0.2, Decay: 0.9}.Validate())
	require.Error(t, Config{Initial: 1, Min: 0.2, Decay: 0}.Validate())
	require.Error(t, Config{Initial: 1, Min: 0.2, Decay: 1.1}.Validate())
}
