package expreplay

import (
	"golang.org/x/exp/rand"
)

// Selector implements functionality for choosing which stored
// transitions should be drawn from an experience replay buffer.
type Selector interface {
	// choose selects n distinct indices in [0, size)
	choose(n, size int) []int
}

// uniformSelector is a Selector which selects data from an experience
// replay buffer uniformly randomly, without replacement.
type uniformSelector struct {
	rng *rand.Rand
}

// NewUniformSelector returns a new Selector which selects data uniformly
// randomly from an experience replay buffer
func NewUniformSelector(seed uint64) Selector {
	source := rand.NewSource(seed)
	rng := rand.New(source)

	return &uniformSelector{rng: rng}
}

// choose selects n distinct indices uniformly at random from [0, size)
// using a partial Fisher-Yates shuffle. Only the swapped positions are
// tracked so that the cost is O(n) regardless of the buffer size.
func (u *uniformSelector) choose(n, size int) []int {
	if n > size {
		panic("choose: cannot select more indices than available")
	}

	swapped := make(map[int]int, 2*n)
	at := func(i int) int {
		if v, ok := swapped[i]; ok {
			return v
		}
		return i
	}

	selected := make([]int, n)
	for i := 0; i < n; i++ {
		j := i + u.rng.Intn(size-i)
		vi, vj := at(i), at(j)
		swapped[i], swapped[j] = vj, vi
		selected[i] = vj
	}

	return selected
}
