// Package initwfn wraps Gorgonia weight initializers so that they can
// be named in JSON configuration files.
package initwfn

import (
	"encoding/json"
	"fmt"
	"reflect"

	G "gorgonia.org/gorgonia"
)

// Type names a weight initializer
type Type string

// Available initializers
const (
	VarianceScaling Type = "VarianceScaling"
	HeN             Type = "HeN"
	HeU             Type = "HeU"
	GlorotN         Type = "GlorotN"
	GlorotU         Type = "GlorotU"
	Uniform         Type = "Uniform"
	Zeroes          Type = "Zeroes"
	Constant        Type = "Constant"
)

// registered maps each Type to its concrete Config type
var registered = map[Type]reflect.Type{
	VarianceScaling: reflect.TypeOf(VarianceScalingConfig{}),
	HeN:             reflect.TypeOf(HeNConfig{}),
	HeU:             reflect.TypeOf(HeUConfig{}),
	GlorotN:         reflect.TypeOf(GlorotNConfig{}),
	GlorotU:         reflect.TypeOf(GlorotUConfig{}),
	Uniform:         reflect.TypeOf(UniformConfig{}),
	Zeroes:          reflect.TypeOf(ZeroesConfig{}),
	Constant:        reflect.TypeOf(ConstantConfig{}),
}

// Config describes a weight initializer
type Config interface {
	// Create returns the Gorgonia InitWFn that the Config describes
	Create() G.InitWFn

	Type() Type
	Validate() error
}

// InitWFn pairs a Gorgonia InitWFn with the Config it was created
// from. Only the Type and Config are serialized.
type InitWFn struct {
	initWFn G.InitWFn
	Type
	Config
}

// New returns the initializer described by c
func New(c Config) (*InitWFn, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("new: %v", err)
	}
	return &InitWFn{initWFn: c.Create(), Type: c.Type(), Config: c}, nil
}

// InitWFn returns the wrapped Gorgonia InitWFn
func (w *InitWFn) InitWFn() G.InitWFn {
	return w.initWFn
}

// String implements the fmt.Stringer interface
func (w *InitWFn) String() string {
	return fmt.Sprintf("{%v InitWFn: %+v}", w.Type, w.Config)
}

// UnmarshalJSON implements the json.Unmarshaler interface. The Config
// field is decoded into the concrete type registered for Type.
func (w *InitWFn) UnmarshalJSON(data []byte) error {
	var raw struct {
		Type   Type
		Config json.RawMessage
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	ty, ok := registered[raw.Type]
	if !ok {
		return fmt.Errorf("unmarshalJSON: unknown initializer type %q",
			raw.Type)
	}

	value := reflect.New(ty)
	if len(raw.Config) != 0 {
		if err := json.Unmarshal(raw.Config, value.Interface()); err != nil {
			return fmt.Errorf("unmarshalJSON: %v", err)
		}
	}

	init, err := New(value.Elem().Interface().(Config))
	if err != nil {
		return fmt.Errorf("unmarshalJSON: %v", err)
	}
	*w = *init
	return nil
}
