package solver

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSolverJSON(t *testing.T) {
	solvers := []func() (*Solver, error){
		func() (*Solver, error) { return NewDefaultRMSProp(0.002) },
		func() (*Solver, error) { return NewDefaultAdam(0.001) },
		func() (*Solver, error) {
			return New(VanillaConfig{StepSize: 0.1, Clip: 5})
		},
	}

	for _, create := range solvers {
		s, err := create()
		require.NoError(t, err)

		data, err := json.Marshal(s)
		require.NoError(t, err)

		var decoded Solver
		require.NoError(t, json.Unmarshal(data, &decoded))
		require.Equal(t, s.Type, decoded.Type)
		require.Equal(t, s.Config, decoded.Config)
		require.NotNil(t, decoded.Solver)
		require.NotNil(t, decoded.Fresh())
	}
}

func TestSolverUnmarshalUnknown(t *testing.T) {
	var s Solver
	err := json.Unmarshal([]byte(`{"Type": "Nesterov", "Config": {}}`), &s)
	require.Error(t, err)

	err = json.Unmarshal([]byte(`{"Type": "RMSProp", "Config": `+
		`{"StepSize": -1, "Rho": 0.9}}`), &s)
	require.Error(t, err)
}

func TestSolverValidate(t *testing.T) {
	_, err := New(RMSPropConfig{StepSize: 0.002, Rho: 1.5})
	require.Error(t, err)

	_, err = New(AdamConfig{StepSize: 0.001, Beta1: 1, Beta2: 0.999})
	require.Error(t, err)

	_, err = New(VanillaConfig{})
	require.Error(t, err)

	s, err := NewDefaultRMSProp(0.002)
	require.NoError(t, err)
	require.Equal(t, RMSPropConfig{StepSize: 0.002, Rho: 0.9,
		Epsilon: 1e-7}, s.Config)
}
