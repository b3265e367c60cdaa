package initwfn

import (
	"fmt"
	"math"

	G "gorgonia.org/gorgonia"
)

func validateGain(gain float64) error {
	if gain <= 0 || math.IsInf(gain, 0) || math.IsNaN(gain) {
		return fmt.Errorf("validate: gain should be positive\n\t"+
			"want(>0)\n\thave(%v)", gain)
	}
	return nil
}

// VarianceScalingConfig draws normal weights with variance
// Scale / fanIn
type VarianceScalingConfig struct {
	Scale float64
}

// NewVarianceScaling returns a variance scaling initializer
func NewVarianceScaling(scale float64) (*InitWFn, error) {
	return New(VarianceScalingConfig{Scale: scale})
}

func (v VarianceScalingConfig) Type() Type { return VarianceScaling }

func (v VarianceScalingConfig) Validate() error {
	return validateGain(v.Scale)
}

// Create returns He normal initialization with gain √Scale, which has
// the same variance
func (v VarianceScalingConfig) Create() G.InitWFn {
	return G.HeN(math.Sqrt(v.Scale))
}

// HeNConfig configures He normal initialization
type HeNConfig struct {
	Gain float64
}

// NewHeN returns a He normal initializer
func NewHeN(gain float64) (*InitWFn, error) {
	return New(HeNConfig{Gain: gain})
}

func (h HeNConfig) Type() Type        { return HeN }
func (h HeNConfig) Validate() error   { return validateGain(h.Gain) }
func (h HeNConfig) Create() G.InitWFn { return G.HeN(h.Gain) }

// HeUConfig configures He uniform initialization
type HeUConfig struct {
	Gain float64
}

func (h HeUConfig) Type() Type        { return HeU }
func (h HeUConfig) Validate() error   { return validateGain(h.Gain) }
func (h HeUConfig) Create() G.InitWFn { return G.HeU(h.Gain) }

// GlorotNConfig configures Glorot normal initialization
type GlorotNConfig struct {
	Gain float64
}

func (g GlorotNConfig) Type() Type        { return GlorotN }
func (g GlorotNConfig) Validate() error   { return validateGain(g.Gain) }
func (g GlorotNConfig) Create() G.InitWFn { return G.GlorotN(g.Gain) }

// GlorotUConfig configures Glorot uniform initialization
type GlorotUConfig struct {
	Gain float64
}

// NewGlorotU returns a Glorot uniform initializer
func NewGlorotU(gain float64) (*InitWFn, error) {
	return New(GlorotUConfig{Gain: gain})
}

func (g GlorotUConfig) Type() Type        { return GlorotU }
func (g GlorotUConfig) Validate() error   { return validateGain(g.Gain) }
func (g GlorotUConfig) Create() G.InitWFn { return G.GlorotU(g.Gain) }
