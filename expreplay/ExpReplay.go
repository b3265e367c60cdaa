// Package expreplay implements a fixed-capacity experience replay
// buffer with uniform random sampling.
package expreplay

import (
	"fmt"

	"github.com/gammazero/deque"
	"github.com/samuelfneumann/navdqn/timestep"
)

// Config implements a specific configuration of an ExperienceReplayer
type Config struct {
	// Capacity is the maximum number of transitions held at once. When
	// full, the oldest transition is evicted to make room.
	Capacity int `json:"capacity"`

	// BatchSize is the number of transitions returned by each call to
	// Sample.
	BatchSize int `json:"batch_size"`
}

// Validate checks a Config to ensure it describes a usable buffer
func (c Config) Validate() error {
	if c.Capacity < 1 {
		return fmt.Errorf("validate: capacity must be >= 1 \n\thave(%v)",
			c.Capacity)
	}
	if c.BatchSize < 1 {
		return fmt.Errorf("validate: batch size must be >= 1 \n\thave(%v)",
			c.BatchSize)
	}
	if c.BatchSize > c.Capacity {
		return fmt.Errorf("validate: cannot have batch size (%v) > "+
			"capacity (%v)", c.BatchSize, c.Capacity)
	}
	return nil
}

// Create creates and returns the ExperienceReplayer with the specified
// Config.
func (c Config) Create(seed uint64) (ExperienceReplayer, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("create: %w", err)
	}
	return New(NewUniformSelector(seed), c.Capacity, c.BatchSize)
}

// ExperienceReplayer implements an experience replay buffer
type ExperienceReplayer interface {
	// Push adds a transition to the buffer, evicting the oldest
	// transition if the buffer is at capacity
	Push(t timestep.Transition)

	// Sample returns n distinct transitions drawn from the buffer
	Sample(n int) ([]timestep.Transition, error)

	// Len returns the current number of transitions in the buffer
	Len() int

	// Capacity returns the maximum allowable transitions in the buffer
	Capacity() int

	// BatchSize returns the configured batch size
	BatchSize() int

	// Ready returns whether Sample(n) would succeed
	Ready(n int) bool
}

// cache implements a concrete ExperienceReplayer as a FIFO queue of
// transitions. Insertion order is kept so that eviction always drops
// the oldest transition.
type cache struct {
	transitions *deque.Deque[timestep.Transition]

	sampler   Selector
	capacity  int
	batchSize int
}

// New creates and returns a new ExperienceReplayer. The sampler
// determines how transitions are drawn from the buffer, capacity is
// the maximum number of transitions held, and batchSize is the default
// number of transitions a learner draws per update.
func New(sampler Selector, capacity, batchSize int) (ExperienceReplayer,
	error) {
	if capacity < 1 {
		return nil, fmt.Errorf("new: capacity must be >= 1")
	}
	if batchSize > capacity {
		return nil, fmt.Errorf("new: cannot have batch size(%v) > "+
			"buffer capacity (%v)", batchSize, capacity)
	}

	return &cache{
		transitions: deque.New[timestep.Transition](),
		sampler:     sampler,
		capacity:    capacity,
		batchSize:   batchSize,
	}, nil
}

// String returns the string representation of the cache
func (c *cache) String() string {
	return fmt.Sprintf("Replay | Size: %v  |  Capacity: %v  |  Batch: %v",
		c.Len(), c.capacity, c.batchSize)
}

// Push adds a transition to the cache
func (c *cache) Push(t timestep.Transition) {
	if c.transitions.Len() >= c.capacity {
		c.transitions.PopFront()
	}
	c.transitions.PushBack(t)
}

// Sample samples and returns n distinct transitions from the cache.
// The cache must hold at least n transitions.
func (c *cache) Sample(n int) ([]timestep.Transition, error) {
	if c.Len() == 0 {
		return nil, &ExpReplayError{Op: "sample", Err: ErrEmptyBuffer}
	}
	if c.Len() < n {
		return nil, &ExpReplayError{
			Op: "sample",
			Err: fmt.Errorf("%w: have %d, want %d", ErrInsufficientSamples,
				c.Len(), n),
		}
	}

	indices := c.sampler.choose(n, c.Len())
	batch := make([]timestep.Transition, len(indices))
	for i, index := range indices {
		batch[i] = c.transitions.At(index)
	}

	return batch, nil
}

// Len returns the current number of transitions in the cache
func (c *cache) Len() int {
	return c.transitions.Len()
}

// Capacity returns the maximum number of transitions that are allowed
// in the cache
func (c *cache) Capacity() int {
	return c.capacity
}

// BatchSize returns the number of transitions a learner draws per
// update
func (c *cache) BatchSize() int {
	return c.batchSize
}

// Ready returns whether the cache holds at least n transitions
func (c *cache) Ready(n int) bool {
	return c.Len() >= n
}

// contents returns the transitions in insertion order, oldest first
func (c *cache) contents() []timestep.Transition {
	out := make([]timestep.Transition, c.Len())
	for i := range out {
		out[i] = c.transitions.At(i)
	}
	return out
}
