package expreplay

import (
	"testing"

	"github.com/samuelfneumann/navdqn/timestep"
	"github.com/stretchr/testify/require"
)

// numbered returns a transition whose reward identifies it
func numbered(i int) timestep.Transition {
	return timestep.NewTransition([]float64{float64(i)}, i%5,
		[]float64{float64(i + 1)}, float64(i), false)
}

func newTestBuffer(t *testing.T, capacity, batch int) *cache {
	replay, err := Config{Capacity: capacity, BatchSize: batch}.Create(7)
	require.NoError(t, err)
	return replay.(*cache)
}

func TestPushEvictsOldest(t *testing.T) {
	buffer := newTestBuffer(t, 5, 1)

	for i := 1; i <= 7; i++ {
		buffer.Push(numbered(i))
		require.LessOrEqual(t, buffer.Len(), buffer.Capacity())
	}

	require.Equal(t, 5, buffer.Len())
	var rewards []float64
	for _, tr := range buffer.contents() {
		rewards = append(rewards, tr.Reward)
	}
	require.Equal(t, []float64{3, 4, 5, 6, 7}, rewards)
}

func TestRetainsMostRecentForAnyPushCount(t *testing.T) {
	for _, capacity := range []int{1, 2, 3, 10} {
		for pushes := 0; pushes < 3*capacity; pushes++ {
			buffer := newTestBuffer(t, capacity, 1)
			for i := 0; i < pushes; i++ {
				buffer.Push(numbered(i))
			}

			want := pushes
			if want > capacity {
				want = capacity
			}
			require.Equal(t, want, buffer.Len())

			contents := buffer.contents()
			for j, tr := range contents {
				require.Equal(t, float64(pushes-want+j), tr.Reward)
			}
		}
	}
}

func TestSampleDistinct(t *testing.T) {
	buffer := newTestBuffer(t, 50, 10)
	for i := 0; i < 30; i++ {
		buffer.Push(numbered(i))
	}

	for trial := 0; trial < 100; trial++ {
		for _, n := range []int{1, 10, 29, 30} {
			batch, err := buffer.Sample(n)
			require.NoError(t, err)
			require.Len(t, batch, n)

			seen := make(map[float64]bool, n)
			for _, tr := range batch {
				require.False(t, seen[tr.Reward], "duplicate transition")
				seen[tr.Reward] = true
			}
		}
	}
}

func TestSampleUnderrun(t *testing.T) {
	buffer := newTestBuffer(t, 10, 4)

	_, err := buffer.Sample(4)
	require.Error(t, err)
	require.True(t, IsEmptyBuffer(err))
	require.True(t, IsUnderrun(err))

	buffer.Push(numbered(0))
	buffer.Push(numbered(1))
	require.False(t, buffer.Ready(4))

	_, err = buffer.Sample(4)
	require.Error(t, err)
	require.True(t, IsInsufficientSamples(err))
	require.False(t, IsEmptyBuffer(err))
}

func TestSampleCoversBuffer(t *testing.T) {
	buffer := newTestBuffer(t, 8, 2)
	for i := 0; i < 8; i++ {
		buffer.Push(numbered(i))
	}

	counts := make(map[float64]int)
	for trial := 0; trial < 4000; trial++ {
		batch, err := buffer.Sample(2)
		require.NoError(t, err)
		for _, tr := range batch {
			counts[tr.Reward]++
		}
	}

	// Each of the 8 transitions is expected 1000 times
	require.Len(t, counts, 8)
	for _, count := range counts {
		require.InDelta(t, 1000, count, 200)
	}
}

func TestConfigValidate(t *testing.T) {
	require.NoError(t, Config{Capacity: 10, BatchSize: 10}.Validate())
	require.Error(t, Config{Capacity: 0, BatchSize: 1}.Validate())
	require.Error(t, Config{Capacity: 10, BatchSize: 0}.Validate())
	require.Error(t, Config{Capacity: 10, BatchSize: 11}.Validate())
}
