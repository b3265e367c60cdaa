package tracker

import (
	"fmt"

	"github.com/samuelfneumann/navdqn/timestep"
)

// EpisodeLength tracks and saves the lengths of episodes in an
// experiment. An episode must finish for its length to be saved.
type EpisodeLength struct {
	episodeLengths []int
	filename       string
}

// NewEpisodeLength returns a new EpisodeLength Tracker which will save
// its data at the specified location filename
func NewEpisodeLength(filename string) *EpisodeLength {
	return &EpisodeLength{filename: filename}
}

// Track caches the episode length when t is the last timestep of an
// episode
func (e *EpisodeLength) Track(t timestep.TimeStep) {
	if t.Last() {
		e.episodeLengths = append(e.episodeLengths, t.Number)
	}
}

// Data returns a copy of the lengths of all finished episodes
func (e *EpisodeLength) Data() []int {
	return append([]int(nil), e.episodeLengths...)
}

// Save saves the data tracked by the EpisodeLength Tracker to disk
func (e *EpisodeLength) Save() error {
	if err := save(e.filename, e.episodeLengths); err != nil {
		return fmt.Errorf("save: %v", err)
	}
	return nil
}
