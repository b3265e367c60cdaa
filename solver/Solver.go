// Package solver wraps Gorgonia solvers so that they can be named in
// JSON configuration files.
package solver

import (
	"encoding/json"
	"fmt"
	"reflect"

	G "gorgonia.org/gorgonia"
)

// Type names a solver
type Type string

// Available solvers
const (
	RMSProp Type = "RMSProp"
	Adam    Type = "Adam"
	Vanilla Type = "Vanilla"
)

// registered maps each Type to its concrete Config type
var registered = map[Type]reflect.Type{
	RMSProp: reflect.TypeOf(RMSPropConfig{}),
	Adam:    reflect.TypeOf(AdamConfig{}),
	Vanilla: reflect.TypeOf(VanillaConfig{}),
}

// Config describes a Gorgonia solver. Losses are averaged over the
// batch before gradients are taken, so solvers are always created
// with a batch size of 1.
type Config interface {
	// Create returns a Gorgonia solver with no accumulated state
	Create() G.Solver

	Type() Type
	Validate() error
}

// Solver pairs a Gorgonia solver with the Config it was created from.
// Only the Type and Config are serialized.
type Solver struct {
	G.Solver `json:"-"`
	Type
	Config
}

// New returns the solver described by c
func New(c Config) (*Solver, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("new: %v", err)
	}
	return &Solver{Solver: c.Create(), Type: c.Type(), Config: c}, nil
}

// Fresh returns a new Gorgonia solver with the same configuration and
// no accumulated state. Each set of learnables needs its own solver.
func (s *Solver) Fresh() G.Solver {
	return s.Config.Create()
}

// String implements the fmt.Stringer interface
func (s *Solver) String() string {
	return fmt.Sprintf("{%v Solver: %+v}", s.Type, s.Config)
}

// UnmarshalJSON implements the json.Unmarshaler interface. The Config
// field is decoded into the concrete type registered for Type.
func (s *Solver) UnmarshalJSON(data []byte) error {
	var raw struct {
		Type   Type
		Config json.RawMessage
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	ty, ok := registered[raw.Type]
	if !ok {
		return fmt.Errorf("unmarshalJSON: unknown solver type %q", raw.Type)
	}

	value := reflect.New(ty)
	if len(raw.Config) != 0 {
		if err := json.Unmarshal(raw.Config, value.Interface()); err != nil {
			return fmt.Errorf("unmarshalJSON: %v", err)
		}
	}

	solver, err := New(value.Elem().Interface().(Config))
	if err != nil {
		return fmt.Errorf("unmarshalJSON: %v", err)
	}
	*s = *solver
	return nil
}

func validateStepSize(stepSize float64) error {
	if stepSize <= 0 {
		return fmt.Errorf("validate: step size should be positive"+
			"\n\twant(>0)\n\thave(%v)", stepSize)
	}
	return nil
}

// withClip appends gradient clipping to opts when clip is positive
func withClip(opts []G.SolverOpt, clip float64) []G.SolverOpt {
	if clip > 0 {
		return append(opts, G.WithClip(clip))
	}
	return opts
}
