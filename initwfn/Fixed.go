package initwfn

import (
	"fmt"

	G "gorgonia.org/gorgonia"
)

// UniformConfig draws weights uniformly from [Low, High)
type UniformConfig struct {
	Low, High float64
}

// NewUniform returns a uniform initializer
func NewUniform(low, high float64) (*InitWFn, error) {
	return New(UniformConfig{Low: low, High: high})
}

func (u UniformConfig) Type() Type { return Uniform }

func (u UniformConfig) Validate() error {
	if u.Low >= u.High {
		return fmt.Errorf("validate: empty range\n\twant(low < high)"+
			"\n\thave(%v, %v)", u.Low, u.High)
	}
	return nil
}

func (u UniformConfig) Create() G.InitWFn { return G.Uniform(u.Low, u.High) }

// ZeroesConfig sets every weight to 0
type ZeroesConfig struct{}

// NewZeroes returns a zero initializer
func NewZeroes() (*InitWFn, error) {
	return New(ZeroesConfig{})
}

func (z ZeroesConfig) Type() Type        { return Zeroes }
func (z ZeroesConfig) Validate() error   { return nil }
func (z ZeroesConfig) Create() G.InitWFn { return G.Zeroes() }

// ConstantConfig sets every weight to Value
type ConstantConfig struct {
	Value float64
}

// NewConstant returns a constant initializer
func NewConstant(value float64) (*InitWFn, error) {
	return New(ConstantConfig{Value: value})
}

func (c ConstantConfig) Type() Type        { return Constant }
func (c ConstantConfig) Validate() error   { return nil }
func (c ConstantConfig) Create() G.InitWFn { return G.ValuesOf(c.Value) }
