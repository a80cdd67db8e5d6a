package cli

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// ProgressReporter reports progress of a long-running command such as an
// evidence export.
type ProgressReporter interface {
	Start(total int64)
	Update(current int64)
	Finish()
	Error(err error)
}

// LineProgress rewrites a single status line with carriage returns.
type LineProgress struct {
	w     io.Writer
	label string
	now   func() time.Time

	mu      sync.Mutex
	total   int64
	done    int64
	started time.Time
}

// NewProgressReporter returns a LineProgress writing to w, or os.Stderr
// when w is nil.
func NewProgressReporter(w io.Writer, label string) ProgressReporter {
	if w == nil {
		w = os.Stderr
	}
	if label == "" {
		label = "Progress"
	}
	return &LineProgress{w: w, label: label, now: time.Now}
}

func (p *LineProgress) Start(total int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.total, p.done, p.started = total, 0, p.now()
	p.draw()
}

// Update sets the number of completed items, capped at the total.
func (p *LineProgress) Update(current int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.done = min(current, p.total)
	p.draw()
}

func (p *LineProgress) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.done = p.total
	p.draw()
	fmt.Fprintln(p.w)
}

func (p *LineProgress) Error(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.w, "\n✗ Error: %v\n", err)
}

// draw is a no-op for an unknown or empty total.
func (p *LineProgress) draw() {
	if p.total <= 0 {
		return
	}
	pct := 100 * float64(p.done) / float64(p.total)

	var rate float64
	if secs := p.now().Sub(p.started).Seconds(); secs > 0 {
		rate = float64(p.done) / secs
	}
	fmt.Fprintf(p.w, "\r%s: %5.1f%% (%d/%d) %.0f records/s", p.label, pct, p.done, p.total, rate)
}
