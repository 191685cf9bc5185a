// Package progress provides progress reporting for long-running copies.
package progress

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"sync"
	"sync/atomic"
)

// Callback receives a completion percentage in [0, 100].
type Callback func(percent float64)

// Clamp bounds percent to [0, 100]. NaN maps to 0.
func Clamp(percent float64) float64 {
	switch {
	case math.IsNaN(percent), percent < 0:
		return 0
	case percent > 100:
		return 100
	default:
		return percent
	}
}

// Percent computes done/total as a percentage. A zero total is complete.
func Percent(done, total int64) float64 {
	if total <= 0 {
		return 100
	}
	return Clamp(float64(done) * 100.0 / float64(total))
}

const barWidth = 30

// Terminal provides a terminal-based progress bar.
type Terminal struct {
	mu          sync.Mutex
	writer      io.Writer
	label       string
	percent     atomic.Uint64 // math.Float64bits
	paused      atomic.Bool
	lastLineLen int
	enabled     atomic.Bool
}

// NewTerminal creates a new terminal progress bar writing to stderr.
func NewTerminal(label string, enabled bool) *Terminal {
	t := &Terminal{
		writer: os.Stderr,
		label:  label,
	}
	t.enabled.Store(enabled)
	return t
}

// SetWriter redirects output, mainly for tests.
func (t *Terminal) SetWriter(w io.Writer) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.writer = w
}

// Callback returns a Callback function for this terminal.
func (t *Terminal) Callback() Callback {
	return func(percent float64) {
		t.percent.Store(math.Float64bits(Clamp(percent)))
		if t.enabled.Load() {
			t.render()
		}
	}
}

// SetPaused marks the bar as paused and redraws it.
func (t *Terminal) SetPaused(paused bool) {
	t.paused.Store(paused)
	if t.enabled.Load() {
		t.render()
	}
}

// Percent returns the last rendered percentage.
func (t *Terminal) Percent() float64 {
	return math.Float64frombits(t.percent.Load())
}

// render draws the progress bar.
func (t *Terminal) render() {
	t.mu.Lock()
	defer t.mu.Unlock()

	percentage := t.Percent()
	filled := int(float64(barWidth) * percentage / 100)
	bar := strings.Repeat("=", filled) + strings.Repeat(" ", barWidth-filled)

	// Clear previous line
	clear := "\r"
	if t.lastLineLen > 0 {
		clear = "\r" + strings.Repeat(" ", t.lastLineLen) + "\r"
	}

	line := fmt.Sprintf("%s [%s] %5.1f%%", t.label, bar, percentage)
	if t.paused.Load() {
		line += " (paused)"
	}

	fmt.Fprint(t.writer, clear+line)
	t.lastLineLen = len(line)
}

// Done prints a final status line.
func (t *Terminal) Done(message string) {
	if !t.enabled.Load() {
		return
	}
	t.paused.Store(false)
	t.render()
	t.mu.Lock()
	defer t.mu.Unlock()
	if message != "" {
		fmt.Fprint(t.writer, " "+message)
	}
	fmt.Fprintln(t.writer)
}

// SetEnabled enables or disables the progress bar.
func (t *Terminal) SetEnabled(enabled bool) {
	t.enabled.Store(enabled)
}

// IsEnabled returns whether the progress bar is enabled.
func (t *Terminal) IsEnabled() bool {
	return t.enabled.Load()
}
