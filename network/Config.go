package network

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/samuelfneumann/navdqn/agent"
	"github.com/samuelfneumann/navdqn/initwfn"
	"github.com/samuelfneumann/navdqn/solver"
)

// Type names an approximator that can be created from a Config
type Type string

// Available approximators
const (
	MLPType    Type = "MLP"
	LinearType Type = "Linear"
)

var registered = map[string]reflect.Type{
	string(MLPType):    reflect.TypeOf(MLPConfig{}),
	string(LinearType): reflect.TypeOf(LinearConfig{}),
}

// Config describes an action-value function approximator
type Config interface {
	Type() Type
	Validate() error

	// Create returns a new approximator taking features inputs and
	// predicting actions values, fit on batches of batchSize samples
	Create(features, actions, batchSize int) (agent.Persistent, error)
}

// Approximator wraps a Config with its Type so that it can be JSON
// marshalled and unmarshalled
type Approximator struct {
	Type
	Config
}

// NewApproximator returns an Approximator wrapping c
func NewApproximator(c Config) *Approximator {
	return &Approximator{Type: c.Type(), Config: c}
}

// UnmarshalJSON implements the json.Unmarshaler interface
func (a *Approximator) UnmarshalJSON(data []byte) error {
	var raw struct {
		Type   string
		Config json.RawMessage
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	ty, ok := registered[raw.Type]
	if !ok {
		return fmt.Errorf("unmarshalJSON: unknown approximator type %q",
			raw.Type)
	}

	value := reflect.New(ty)
	if len(raw.Config) > 0 {
		if err := json.Unmarshal(raw.Config, value.Interface()); err != nil {
			return fmt.Errorf("unmarshalJSON: %v", err)
		}
	}

	a.Type = Type(raw.Type)
	a.Config = value.Elem().Interface().(Config)
	return nil
}

// String implements the fmt.Stringer interface
func (a *Approximator) String() string {
	return fmt.Sprintf("{%v Approximator: %v}", a.Type, a.Config)
}

// MLPConfig configures an MLP
type MLPConfig struct {
	HiddenSizes []int
	Biases      []bool
	Activations []*Activation
	InitWFn     *initwfn.InitWFn
	Solver      *solver.Solver
	Loss        Loss
}

// DefaultMLPConfig returns a ReLU network with hidden layers of 32, 32
// and 16 units, variance scaling initialization, RMSProp with a step size of
// 0.002 and the Huber loss.
func DefaultMLPConfig() MLPConfig {
	init, err := initwfn.NewVarianceScaling(2)
	if err != nil {
		panic(fmt.Sprintf("defaultMLPConfig: %v", err))
	}

	s, err := solver.NewDefaultRMSProp(0.002)
	if err != nil {
		panic(fmt.Sprintf("defaultMLPConfig: %v", err))
	}

	return MLPConfig{
		HiddenSizes: []int{32, 32, 16},
		Biases:      []bool{true, true, true},
		Activations: []*Activation{ReLU(), ReLU(), ReLU()},
		InitWFn:     init,
		Solver:      s,
		Loss:        Huber,
	}
}

// Type returns the type of approximator described by the Config
func (m MLPConfig) Type() Type {
	return MLPType
}

// Validate checks the architecture of the MLP
func (m MLPConfig) Validate() error {
	if len(m.HiddenSizes) != len(m.Biases) ||
		len(m.HiddenSizes) != len(m.Activations) {
		return fmt.Errorf("validate: hidden sizes, biases and activations "+
			"should have equal lengths\n\thave(%v, %v, %v)",
			len(m.HiddenSizes), len(m.Biases), len(m.Activations))
	}
	for i, size := range m.HiddenSizes {
		if size < 1 {
			return fmt.Errorf("validate: hidden layer %v should have "+
				"units\n\twant(>0)\n\thave(%v)", i, size)
		}
		if m.Activations[i] == nil {
			return fmt.Errorf("validate: nil activation for layer %v", i)
		}
	}
	if m.InitWFn == nil {
		return fmt.Errorf("validate: nil weight initializer")
	}
	if m.Solver == nil {
		return fmt.Errorf("validate: nil solver")
	}
	if err := m.Loss.Validate(); err != nil {
		return fmt.Errorf("validate: %v", err)
	}
	return nil
}

// Create returns a new MLP
func (m MLPConfig) Create(features, actions,
	batchSize int) (agent.Persistent, error) {
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("create: %v", err)
	}
	return NewMLP(features, actions, batchSize, m.HiddenSizes, m.Biases,
		m.Activations, m.InitWFn.InitWFn(), m.Solver, m.Loss)
}

// LinearConfig configures a Linear approximator
type LinearConfig struct {
	StepSize float64
}

// Type returns the type of approximator described by the Config
func (l LinearConfig) Type() Type {
	return LinearType
}

// Validate checks the step size
func (l LinearConfig) Validate() error {
	if l.StepSize <= 0 {
		return fmt.Errorf("validate: step size should be positive"+
			"\n\twant(>0)\n\thave(%v)", l.StepSize)
	}
	return nil
}

// Create returns a new Linear approximator. The batch size is unused.
func (l LinearConfig) Create(features, actions,
	_ int) (agent.Persistent, error) {
	return NewLinear(features, actions, l.StepSize)
}
