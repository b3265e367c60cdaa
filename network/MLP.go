// Package network implements the action-value function approximators
// used by the learner: a multi-layered perceptron built on Gorgonia
// and a linear approximator built on gonum.
package network

import (
	"encoding/gob"
	"fmt"
	"io"

	"github.com/samuelfneumann/navdqn/agent"
	"github.com/samuelfneumann/navdqn/solver"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// net is a single computational graph holding an MLP with a fixed
// batch size
type net struct {
	g          *G.ExprGraph
	input      *G.Node
	layers     []*fcLayer
	prediction *G.Node
	predVal    G.Value
	learnables G.Nodes
}

// newNet creates an MLP in a new graph. A final linear layer of size
// outputs with a bias unit is always added.
func newNet(batch, features, outputs int, hiddenSizes []int, biases []bool,
	activations []*Activation, init G.InitWFn) (*net, error) {
	sizes := append(append([]int{}, hiddenSizes...), outputs)
	b := append(append([]bool{}, biases...), true)
	acts := append(append([]*Activation{}, activations...), Identity())

	g := G.NewGraph()
	input := G.NewMatrix(g, tensor.Float64, G.WithShape(batch, features),
		G.WithName("input"), G.WithInit(G.Zeroes()))

	n := &net{
		g:      g,
		input:  input,
		layers: addfcLayers(g, features, sizes, b, acts, init),
	}

	pred := input
	var err error
	for i, l := range n.layers {
		if pred, err = l.fwd(pred); err != nil {
			msg := "newNet: could not compute forward pass of layer %v: %v"
			return nil, fmt.Errorf(msg, i, err)
		}
	}
	n.prediction = pred
	G.Read(n.prediction, &n.predVal)

	learnables := make(G.Nodes, 0, 2*len(n.layers))
	for _, l := range n.layers {
		learnables = append(learnables, l.weights)
		if l.bias != nil {
			learnables = append(learnables, l.bias)
		}
	}
	n.learnables = learnables

	return n, nil
}

// model returns the learnables nodes with their gradients
func (n *net) model() []G.ValueGrad {
	model := make([]G.ValueGrad, len(n.learnables))
	for i, node := range n.learnables {
		model[i] = node
	}
	return model
}

// weights returns a copy of the values of the learnables
func (n *net) weights() [][]float64 {
	weights := make([][]float64, len(n.learnables))
	for i, node := range n.learnables {
		data := node.Value().Data().([]float64)
		weights[i] = append([]float64(nil), data...)
	}
	return weights
}

// setWeights sets the values of the learnables, copying weights
func (n *net) setWeights(weights [][]float64) error {
	if len(weights) != len(n.learnables) {
		return fmt.Errorf("setWeights: invalid number of weight tensors"+
			"\n\twant(%v)\n\thave(%v)", len(n.learnables), len(weights))
	}

	for i, node := range n.learnables {
		if len(weights[i]) != node.Shape().TotalSize() {
			return fmt.Errorf("setWeights: invalid size of weight tensor "+
				"%v\n\twant(%v)\n\thave(%v)", node.Name(),
				node.Shape().TotalSize(), len(weights[i]))
		}
	}

	for i, node := range n.learnables {
		backing := append([]float64(nil), weights[i]...)
		t := tensor.New(tensor.WithBacking(backing),
			tensor.WithShape(node.Shape()...))
		if err := G.Let(node, t); err != nil {
			return fmt.Errorf("setWeights: %v", err)
		}
	}
	return nil
}

// setInput sets the value of the input node before running the
// forward pass
func (n *net) setInput(input []float64) error {
	t := tensor.New(tensor.WithBacking(input),
		tensor.WithShape(n.input.Shape()...))
	return G.Let(n.input, t)
}

// MLP implements an action-value function approximator as a
// multi-layered perceptron trained on the configured loss between its
// predictions and given targets.
//
// Single states are predicted with a graph of batch size 1 while
// batches are fit with a second graph of the training batch size. The
// weights of the prediction graph are synced after each fit.
type MLP struct {
	features    int
	outputs     int
	batchSize   int
	hiddenSizes []int
	biases      []bool
	activations []*Activation
	lossType    Loss

	predictNet *net
	predictVM  G.VM

	trainNet *net
	targets  *G.Node
	loss     *G.Node
	lossVal  G.Value
	trainVM  G.VM

	solverConfig *solver.Solver
	solver       G.Solver
}

// NewMLP returns a new MLP predicting outputs values from features
// inputs, fit on batches of batchSize samples with the given loss. The
// MLP has
// len(hiddenSizes) + 1 layers; the final layer is linear with a bias.
// Layer i has hiddenSizes[i] units, a bias unit if biases[i] and
// activation activations[i].
func NewMLP(features, outputs, batchSize int, hiddenSizes []int,
	biases []bool, activations []*Activation, init G.InitWFn,
	s *solver.Solver, loss Loss) (*MLP, error) {
	if features < 1 || outputs < 1 || batchSize < 1 {
		return nil, fmt.Errorf("newMLP: features, outputs and batch size "+
			"should be positive\n\twant(>0)\n\thave(%v, %v, %v)", features,
			outputs, batchSize)
	}
	if len(hiddenSizes) != len(activations) {
		return nil, fmt.Errorf("newMLP: invalid number of activations"+
			"\n\twant(%d)\n\thave(%d)", len(hiddenSizes), len(activations))
	}
	if len(hiddenSizes) != len(biases) {
		return nil, fmt.Errorf("newMLP: invalid number of biases"+
			"\n\twant(%d)\n\thave(%d)", len(hiddenSizes), len(biases))
	}
	if s == nil {
		return nil, fmt.Errorf("newMLP: nil solver")
	}
	if err := loss.Validate(); err != nil {
		return nil, fmt.Errorf("newMLP: %v", err)
	}

	predictNet, err := newNet(1, features, outputs, hiddenSizes, biases,
		activations, init)
	if err != nil {
		return nil, fmt.Errorf("newMLP: %v", err)
	}

	trainNet, err := newNet(batchSize, features, outputs, hiddenSizes,
		biases, activations, G.Zeroes())
	if err != nil {
		return nil, fmt.Errorf("newMLP: %v", err)
	}
	if err := trainNet.setWeights(predictNet.weights()); err != nil {
		return nil, fmt.Errorf("newMLP: %v", err)
	}

	// Loss averaged over all samples and outputs
	targets := G.NewMatrix(trainNet.g, tensor.Float64,
		G.WithShape(batchSize, outputs), G.WithName("targets"),
		G.WithInit(G.Zeroes()))
	lossNode, err := loss.build(trainNet.prediction, targets)
	if err != nil {
		return nil, fmt.Errorf("newMLP: could not build loss: %v", err)
	}

	m := &MLP{
		features:     features,
		outputs:      outputs,
		batchSize:    batchSize,
		hiddenSizes:  append([]int(nil), hiddenSizes...),
		biases:       append([]bool(nil), biases...),
		activations:  append([]*Activation(nil), activations...),
		lossType:     loss,
		predictNet:   predictNet,
		trainNet:     trainNet,
		targets:      targets,
		loss:         lossNode,
		solverConfig: s,
		solver:       s.Fresh(),
	}
	G.Read(lossNode, &m.lossVal)

	if _, err := G.Grad(lossNode, trainNet.learnables...); err != nil {
		panic(fmt.Sprintf("newMLP: could not compute gradient: %v", err))
	}

	m.predictVM = G.NewTapeMachine(predictNet.g)
	m.trainVM = G.NewTapeMachine(trainNet.g,
		G.BindDualValues(trainNet.learnables...))

	return m, nil
}

// Predict returns the predicted value of each output for a single
// state
func (m *MLP) Predict(state []float64) ([]float64, error) {
	if len(state) != m.features {
		return nil, fmt.Errorf("predict: invalid number of features"+
			"\n\twant(%v)\n\thave(%v)", m.features, len(state))
	}

	if err := m.predictNet.setInput(append([]float64(nil), state...)); err != nil {
		return nil, fmt.Errorf("predict: %v", err)
	}

	defer m.predictVM.Reset()
	if err := m.predictVM.RunAll(); err != nil {
		return nil, fmt.Errorf("predict: %v", err)
	}

	values := m.predictNet.predVal.Data().([]float64)
	return append([]float64(nil), values...), nil
}

// Fit takes one solver step on the configured loss between the
// predictions for states and targets. Exactly BatchSize() states must
// be given.
func (m *MLP) Fit(states, targets [][]float64) error {
	if len(states) != m.batchSize || len(targets) != m.batchSize {
		return fmt.Errorf("fit: invalid batch size\n\twant(%v)"+
			"\n\thave(%v states, %v targets)", m.batchSize, len(states),
			len(targets))
	}

	input := make([]float64, 0, m.batchSize*m.features)
	for i, s := range states {
		if len(s) != m.features {
			return fmt.Errorf("fit: invalid number of features in state "+
				"%v\n\twant(%v)\n\thave(%v)", i, m.features, len(s))
		}
		input = append(input, s...)
	}

	target := make([]float64, 0, m.batchSize*m.outputs)
	for i, t := range targets {
		if len(t) != m.outputs {
			return fmt.Errorf("fit: invalid number of targets in row %v"+
				"\n\twant(%v)\n\thave(%v)", i, m.outputs, len(t))
		}
		target = append(target, t...)
	}

	if err := m.trainNet.setInput(input); err != nil {
		return fmt.Errorf("fit: %v", err)
	}
	targetTensor := tensor.New(tensor.WithBacking(target),
		tensor.WithShape(m.batchSize, m.outputs))
	if err := G.Let(m.targets, targetTensor); err != nil {
		return fmt.Errorf("fit: %v", err)
	}

	if err := m.trainVM.RunAll(); err != nil {
		m.trainVM.Reset()
		return fmt.Errorf("fit: %v", err)
	}
	if err := m.solver.Step(m.trainNet.model()); err != nil {
		m.trainVM.Reset()
		return fmt.Errorf("fit: %v", err)
	}
	m.trainVM.Reset()

	// Sync the prediction graph with the new weights
	if err := m.predictNet.setWeights(m.trainNet.weights()); err != nil {
		return fmt.Errorf("fit: %v", err)
	}
	return nil
}

// Loss returns the loss computed by the last call to Fit
func (m *MLP) Loss() float64 {
	if m.lossVal == nil {
		return 0
	}
	return m.lossVal.Data().(float64)
}

// Weights returns a copy of the weights of the MLP, one slice per
// learnable tensor in layer order
func (m *MLP) Weights() [][]float64 {
	return m.predictNet.weights()
}

// SetWeights sets the weights of the MLP to a copy of weights
func (m *MLP) SetWeights(weights [][]float64) error {
	if err := m.predictNet.setWeights(weights); err != nil {
		return err
	}
	return m.trainNet.setWeights(weights)
}

// Clone returns a copy of the MLP with its own graphs and a solver
// with no accumulated state
func (m *MLP) Clone() (agent.ValueFunction, error) {
	clone, err := NewMLP(m.features, m.outputs, m.batchSize, m.hiddenSizes,
		m.biases, m.activations, G.Zeroes(), m.solverConfig, m.lossType)
	if err != nil {
		return nil, fmt.Errorf("clone: %v", err)
	}

	if err := clone.SetWeights(m.Weights()); err != nil {
		return nil, fmt.Errorf("clone: %v", err)
	}
	return clone, nil
}

// Features returns the number of inputs of the MLP
func (m *MLP) Features() int {
	return m.features
}

// Actions returns the number of outputs of the MLP
func (m *MLP) Actions() int {
	return m.outputs
}

// BatchSize returns the batch size that Fit expects
func (m *MLP) BatchSize() int {
	return m.batchSize
}

// mlpSnapshot is the gob encoded form of an MLP
type mlpSnapshot struct {
	Features    int
	Outputs     int
	HiddenSizes []int
	Biases      []bool
	Activations []*Activation
	Weights     [][]float64
}

// Save writes the architecture and weights of the MLP to w
func (m *MLP) Save(w io.Writer) error {
	snapshot := mlpSnapshot{
		Features:    m.features,
		Outputs:     m.outputs,
		HiddenSizes: m.hiddenSizes,
		Biases:      m.biases,
		Activations: m.activations,
		Weights:     m.Weights(),
	}

	if err := gob.NewEncoder(w).Encode(snapshot); err != nil {
		return fmt.Errorf("save: could not encode MLP: %v", err)
	}
	return nil
}

// Load reads weights saved by Save into the MLP. The saved
// architecture must match the MLP.
func (m *MLP) Load(r io.Reader) error {
	var snapshot mlpSnapshot
	if err := gob.NewDecoder(r).Decode(&snapshot); err != nil {
		return fmt.Errorf("load: could not decode MLP: %v", err)
	}

	if snapshot.Features != m.features || snapshot.Outputs != m.outputs {
		return fmt.Errorf("load: incompatible input or output width"+
			"\n\twant(%v, %v)\n\thave(%v, %v)", m.features, m.outputs,
			snapshot.Features, snapshot.Outputs)
	}
	if !equalInts(snapshot.HiddenSizes, m.hiddenSizes) {
		return fmt.Errorf("load: incompatible hidden layers"+
			"\n\twant(%v)\n\thave(%v)", m.hiddenSizes, snapshot.HiddenSizes)
	}

	if err := m.SetWeights(snapshot.Weights); err != nil {
		return fmt.Errorf("load: %v", err)
	}
	return nil
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
