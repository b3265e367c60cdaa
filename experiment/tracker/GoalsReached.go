package tracker

import (
	"fmt"

	"github.com/samuelfneumann/navdqn/timestep"
)

// GoalsReached tracks and saves the number of goals reached in each
// episode
type GoalsReached struct {
	current  int
	episodes []int
	filename string
}

// NewGoalsReached returns a new GoalsReached Tracker
func NewGoalsReached(filename string) *GoalsReached {
	return &GoalsReached{filename: filename}
}

// Track counts the goals reached on t
func (g *GoalsReached) Track(t timestep.TimeStep) {
	if t.GoalReached {
		g.current++
	}
	if t.Last() {
		g.episodes = append(g.episodes, g.current)
		g.current = 0
	}
}

// Data returns a copy of the goals reached in all finished episodes
func (g *GoalsReached) Data() []int {
	return append([]int(nil), g.episodes...)
}

// Save saves the data tracked by the GoalsReached Tracker to disk
func (g *GoalsReached) Save() error {
	if err := save(g.filename, g.episodes); err != nil {
		return fmt.Errorf("save: %v", err)
	}
	return nil
}
