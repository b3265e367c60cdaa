package network

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/samuelfneumann/navdqn/agent"
	"github.com/samuelfneumann/navdqn/solver"
	"github.com/stretchr/testify/require"
	G "gorgonia.org/gorgonia"
)

var (
	_ agent.Persistent = (*MLP)(nil)
	_ agent.Persistent = (*Linear)(nil)
)

func newTestMLP(t *testing.T, batch int, hidden []int,
	loss Loss) *MLP {
	s, err := solver.NewDefaultRMSProp(0.01)
	require.NoError(t, err)

	biases := make([]bool, len(hidden))
	acts := make([]*Activation, len(hidden))
	for i := range hidden {
		biases[i] = true
		acts[i] = ReLU()
	}

	m, err := NewMLP(3, 2, batch, hidden, biases, acts, G.GlorotN(1.0), s,
		loss)
	require.NoError(t, err)
	return m
}

func TestMLPPredict(t *testing.T) {
	m := newTestMLP(t, 4, []int{8, 8}, MSE)

	pred, err := m.Predict([]float64{0.1, 0.2, 0.3})
	require.NoError(t, err)
	require.Len(t, pred, 2)

	again, err := m.Predict([]float64{0.1, 0.2, 0.3})
	require.NoError(t, err)
	require.Equal(t, pred, again)

	_, err = m.Predict([]float64{0.1})
	require.Error(t, err)

	require.Equal(t, 3, m.Features())
	require.Equal(t, 2, m.Actions())
	require.Equal(t, 4, m.BatchSize())
}

// failingVM fails its first run and counts resets
type failingVM struct {
	G.VM
	runs, resets int
}

func (f *failingVM) RunAll() error {
	f.runs++
	if f.runs == 1 {
		return errors.New("run failed")
	}
	return f.VM.RunAll()
}

func (f *failingVM) Reset() {
	f.resets++
	f.VM.Reset()
}

func TestMLPPredictResetsOnError(t *testing.T) {
	m := newTestMLP(t, 4, []int{8}, MSE)
	state := []float64{0.1, 0.2, 0.3}

	want, err := m.Predict(state)
	require.NoError(t, err)

	vm := &failingVM{VM: m.predictVM}
	m.predictVM = vm

	_, err = m.Predict(state)
	require.Error(t, err)
	require.Equal(t, 1, vm.resets)

	got, err := m.Predict(state)
	require.NoError(t, err)
	require.Equal(t, 2, vm.resets)
	require.Equal(t, want, got)
}

func TestMLPLoss(t *testing.T) {
	states := [][]float64{{1, 2, 3}}
	targets := [][]float64{{0.5, 3}}

	// With no hidden layers and zero weights every prediction is 0
	for _, test := range []struct {
		loss Loss
		want float64
	}{
		{MSE, (0.25 + 9) / 2},
		{Huber, (0.125 + 2.5) / 2},
	} {
		s, err := solver.NewDefaultRMSProp(0.01)
		require.NoError(t, err)
		m, err := NewMLP(3, 2, 1, nil, nil, nil, G.Zeroes(), s, test.loss)
		require.NoError(t, err)

		require.NoError(t, m.Fit(states, targets))
		require.InDelta(t, test.want, m.Loss(), 1e-9, test.loss)
	}
}

func TestMLPFit(t *testing.T) {
	m := newTestMLP(t, 4, []int{16}, MSE)

	states := [][]float64{{0, 0, 1}, {0, 1, 0}, {1, 0, 0}, {1, 1, 1}}
	targets := [][]float64{{1, -1}, {0.5, 0}, {-0.5, 2}, {1, 1}}

	before, err := m.Predict(states[0])
	require.NoError(t, err)

	require.NoError(t, m.Fit(states, targets))
	first := m.Loss()
	for i := 0; i < 300; i++ {
		require.NoError(t, m.Fit(states, targets))
	}
	require.Less(t, m.Loss(), first)

	// The prediction graph follows the training graph
	after, err := m.Predict(states[0])
	require.NoError(t, err)
	require.NotEqual(t, before, after)

	require.Error(t, m.Fit(states[:2], targets[:2]))
	require.Error(t, m.Fit(states, [][]float64{{1}, {1}, {1}, {1}}))
}

func TestMLPCloneIndependent(t *testing.T) {
	m := newTestMLP(t, 1, []int{4}, Huber)
	state := []float64{0.3, -0.2, 0.9}

	clone, err := m.Clone()
	require.NoError(t, err)

	want, _ := m.Predict(state)
	got, err := clone.Predict(state)
	require.NoError(t, err)
	require.InDeltaSlice(t, want, got, 1e-12)

	require.NoError(t, m.Fit([][]float64{state}, [][]float64{{5, 5}}))
	after, _ := clone.Predict(state)
	require.InDeltaSlice(t, got, after, 1e-12)

	moved, _ := m.Predict(state)
	require.NotEqual(t, got, moved)

	require.NoError(t, clone.SetWeights(m.Weights()))
	synced, _ := clone.Predict(state)
	require.InDeltaSlice(t, moved, synced, 1e-12)
}

func TestMLPWeightsCopy(t *testing.T) {
	m := newTestMLP(t, 1, []int{4}, MSE)

	w := m.Weights()
	w[0][0] += 100
	require.NotEqual(t, w[0][0], m.Weights()[0][0])

	require.Error(t, m.SetWeights(w[:1]))
	w[0] = w[0][:1]
	require.Error(t, m.SetWeights(w))
}

func TestMLPSaveLoad(t *testing.T) {
	m := newTestMLP(t, 2, []int{5}, MSE)
	state := []float64{1, -1, 0.5}

	var buf bytes.Buffer
	require.NoError(t, m.Save(&buf))

	other := newTestMLP(t, 2, []int{5}, MSE)
	require.NoError(t, other.Load(&buf))

	want, _ := m.Predict(state)
	got, _ := other.Predict(state)
	require.InDeltaSlice(t, want, got, 1e-12)

	buf.Reset()
	require.NoError(t, m.Save(&buf))
	wider := newTestMLP(t, 2, []int{6}, MSE)
	require.Error(t, wider.Load(&buf))
}

func TestLinear(t *testing.T) {
	l, err := NewLinear(2, 1, 0.1)
	require.NoError(t, err)

	// y = 2a - b + 0.5
	states := [][]float64{{0, 0}, {1, 0}, {0, 1}, {1, 1}}
	targets := [][]float64{{0.5}, {2.5}, {-0.5}, {1.5}}

	require.NoError(t, l.Fit(states, targets))
	first := l.Loss()
	for i := 0; i < 2000; i++ {
		require.NoError(t, l.Fit(states, targets))
	}
	require.Less(t, l.Loss(), first)
	require.InDeltaSlice(t, []float64{2, -1, 0.5}, l.Weights()[0], 1e-3)

	pred, err := l.Predict([]float64{2, 2})
	require.NoError(t, err)
	require.InDelta(t, 2.5, pred[0], 1e-2)

	require.Error(t, l.Fit(states, targets[:1]))
	_, err = l.Predict([]float64{1})
	require.Error(t, err)

	_, err = NewLinear(2, 1, 0)
	require.Error(t, err)
}

func TestLinearCloneSaveLoad(t *testing.T) {
	l, _ := NewLinear(2, 3, 0.5)
	require.NoError(t, l.SetWeights([][]float64{{1, 2, 3, 4, 5, 6, 7, 8, 9}}))

	clone, err := l.Clone()
	require.NoError(t, err)
	require.NoError(t, l.Fit([][]float64{{1, 1}}, [][]float64{{0, 0, 0}}))
	require.Equal(t, []float64{1, 2, 3, 4, 5, 6, 7, 8, 9},
		clone.Weights()[0])

	var buf bytes.Buffer
	require.NoError(t, l.Save(&buf))
	loaded, _ := NewLinear(2, 3, 0.5)
	require.NoError(t, loaded.Load(&buf))
	require.Equal(t, l.Weights(), loaded.Weights())

	buf.Reset()
	require.NoError(t, l.Save(&buf))
	narrow, _ := NewLinear(1, 3, 0.5)
	require.Error(t, narrow.Load(&buf))

	require.Error(t, l.SetWeights([][]float64{{1}}))
}

func TestApproximatorJSON(t *testing.T) {
	a := NewApproximator(DefaultMLPConfig())
	data, err := json.Marshal(a)
	require.NoError(t, err)

	var decoded Approximator
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Equal(t, MLPType, decoded.Type)

	c, ok := decoded.Config.(MLPConfig)
	require.True(t, ok)
	require.Equal(t, []int{32, 32, 16}, c.HiddenSizes)
	require.Equal(t, Huber, c.Loss)
	require.Equal(t, solver.RMSProp, c.Solver.Type)
	require.NoError(t, c.Validate())

	approx, err := decoded.Create(33, 5, 1)
	require.NoError(t, err)
	require.Equal(t, 33, approx.Features())
	require.Equal(t, 5, approx.Actions())

	linear := []byte(`{"Type": "Linear", "Config": {"StepSize": 0.01}}`)
	require.NoError(t, json.Unmarshal(linear, &decoded))
	require.Equal(t, LinearType, decoded.Type)

	require.Error(t, json.Unmarshal([]byte(`{"Type": "Tree"}`), &decoded))
	require.Error(t, json.Unmarshal([]byte(`{"Loss": "l1"}`),
		&MLPConfig{}))
}

func TestMLPConfigValidate(t *testing.T) {
	c := DefaultMLPConfig()
	c.Biases = c.Biases[:1]
	require.Error(t, c.Validate())

	c = DefaultMLPConfig()
	c.HiddenSizes = []int{32, 0, 16}
	require.Error(t, c.Validate())

	c = DefaultMLPConfig()
	c.Solver = nil
	require.Error(t, c.Validate())

	require.Error(t, LinearConfig{}.Validate())
}
