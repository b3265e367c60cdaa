package initwfn

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInitWFnJSON(t *testing.T) {
	inits := []func() (*InitWFn, error){
		func() (*InitWFn, error) { return NewHeN(math.Sqrt2) },
		func() (*InitWFn, error) { return NewVarianceScaling(2) },
		func() (*InitWFn, error) { return NewGlorotU(1) },
		func() (*InitWFn, error) { return NewZeroes() },
		func() (*InitWFn, error) { return NewConstant(0.5) },
		func() (*InitWFn, error) { return NewUniform(-1, 1) },
	}

	for _, create := range inits {
		init, err := create()
		require.NoError(t, err)

		data, err := json.Marshal(init)
		require.NoError(t, err)

		var decoded InitWFn
		require.NoError(t, json.Unmarshal(data, &decoded))
		require.Equal(t, init.Type, decoded.Type)
		require.Equal(t, init.Config, decoded.Config)
		require.NotNil(t, decoded.InitWFn())
	}
}

func TestInitWFnUnknown(t *testing.T) {
	var init InitWFn
	err := json.Unmarshal([]byte(`{"Type": "Orthogonal", "Config": {}}`),
		&init)
	require.Error(t, err)
}

func TestInitWFnInvalid(t *testing.T) {
	_, err := NewHeN(0)
	require.Error(t, err)

	_, err = NewUniform(1, -1)
	require.Error(t, err)

	var init InitWFn
	err = json.Unmarshal([]byte(`{"Type": "GlorotN", "Config": {"Gain": -1}}`),
		&init)
	require.Error(t, err)

	require.NoError(t, json.Unmarshal([]byte(`{"Type": "Zeroes"}`), &init))
	require.Equal(t, Zeroes, init.Type)
}

func TestVarianceScaling(t *testing.T) {
	init, err := NewVarianceScaling(2)
	require.NoError(t, err)
	require.Equal(t, VarianceScaling, init.Type)
	require.Equal(t, VarianceScalingConfig{Scale: 2}, init.Config)
	require.NotNil(t, init.InitWFn())
}
