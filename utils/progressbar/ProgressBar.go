// Package progressbar implements functionality of printing a progress
// bar to the terminal window
package progressbar

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// ProgressBar implements progress bar functionality that must be
// manually managed. That is, Display must be called whenever an
// updated progress bar should be printed.
//
// ProgressBar does not use concurrency.
type ProgressBar struct {
	out             io.Writer
	width           float64
	maxProgress     float64
	currentProgress float64
	bar             strings.Builder
	startTime       time.Time
}

// New returns a new ProgressBar that is width characters wide, writes
// to out and reaches 100% after max calls to Increment
func New(out io.Writer, width, max int) *ProgressBar {
	if max < 1 {
		max = 1
	}
	return &ProgressBar{
		out:         out,
		width:       float64(width),
		maxProgress: float64(max),
		startTime:   time.Now(),
	}
}

// Increment increments the internal progress counter. Each time an
// iteration is performed, Increment should be called.
func (p *ProgressBar) Increment() {
	if p.currentProgress < p.maxProgress {
		p.currentProgress++
	}
}

// Progress returns the fraction of iterations completed
func (p *ProgressBar) Progress() float64 {
	return p.currentProgress / p.maxProgress
}

// String returns the current bar followed by status
func (p *ProgressBar) String(status string) string {
	p.bar.Reset()
	p.bar.WriteString("|")

	filled := int(p.Progress() * p.width)
	p.bar.WriteString(strings.Repeat("█", filled))
	p.bar.WriteString(strings.Repeat(" ", int(p.width)-filled))

	fmt.Fprintf(&p.bar, "| [%.2f%% | elapsed: %v]", p.Progress()*100,
		time.Since(p.startTime).Truncate(time.Second))
	if status != "" {
		fmt.Fprintf(&p.bar, " %v", status)
	}
	return p.bar.String()
}

// Display overwrites the current terminal line with the bar
func (p *ProgressBar) Display(status string) {
	fmt.Fprintf(p.out, "\r\033[K%v", p.String(status))
}

// Close ends the line of the bar
func (p *ProgressBar) Close() {
	fmt.Fprintln(p.out)
}
