package tracker

import (
	"fmt"

	"github.com/samuelfneumann/navdqn/timestep"
	"gonum.org/v1/gonum/stat"
)

// MovingAverage saves the moving average of the episodic returns
// tracked by a Return Tracker. Only complete windows are averaged, so
// for n episodes and a window of w there are n - w + 1 averages, the
// first of which covers episodes 0 through w - 1.
type MovingAverage struct {
	returns  *Return
	window   int
	filename string
}

// NewMovingAverage returns a MovingAverage over the returns of source.
// It panics if window < 1.
func NewMovingAverage(source *Return, window int,
	filename string) *MovingAverage {
	if window < 1 {
		panic(fmt.Sprintf("newMovingAverage: window should be positive"+
			"\n\twant(>0)\n\thave(%v)", window))
	}
	return &MovingAverage{returns: source, window: window, filename: filename}
}

// Track is a no-op, the returns are tracked by the source Return
func (m *MovingAverage) Track(timestep.TimeStep) {}

// Window returns the number of episodes in each average
func (m *MovingAverage) Window() int {
	return m.window
}

// Data returns the moving averages of the returns so far
func (m *MovingAverage) Data() []float64 {
	return Average(m.returns.Data(), m.window)
}

// Save saves the moving averages to disk
func (m *MovingAverage) Save() error {
	if err := save(m.filename, m.Data()); err != nil {
		return fmt.Errorf("save: %v", err)
	}
	return nil
}

// Average returns the means of all complete windows of data
func Average(data []float64, window int) []float64 {
	if len(data) < window {
		return []float64{}
	}

	averages := make([]float64, len(data)-window+1)
	for i := range averages {
		averages[i] = stat.Mean(data[i:i+window], nil)
	}
	return averages
}
