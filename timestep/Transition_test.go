package timestep

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewTransitionCopiesStates(t *testing.T) {
	state := []float64{1, 2, 3}
	next := []float64{4, 5, 6}

	tr := NewTransition(state, 2, next, -1.5, true)
	state[0] = 100
	next[0] = 100

	require.Equal(t, []float64{1, 2, 3}, tr.State)
	require.Equal(t, []float64{4, 5, 6}, tr.NextState)
	require.Equal(t, 2, tr.Action)
	require.Equal(t, -1.5, tr.Reward)
	require.True(t, tr.Done)
}

func TestFromSteps(t *testing.T) {
	first := New(First, 0, []float64{0, 0}, 0)
	next := New(Mid, 3, []float64{1, 1}, 1)
	next.Done = true
	next.End(Crash)

	tr := FromSteps(first, 4, next)
	require.Equal(t, []float64{0, 0}, tr.State)
	require.Equal(t, []float64{1, 1}, tr.NextState)
	require.Equal(t, 4, tr.Action)
	require.Equal(t, 3.0, tr.Reward)
	require.True(t, tr.Done)
	require.True(t, next.Last())
	require.Equal(t, Crash, next.EndReason)
}
