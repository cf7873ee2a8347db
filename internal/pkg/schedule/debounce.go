// Package schedule provides a cancellable debounced task used to coalesce
// rapid cache mutations into a single deferred persist.
package schedule

import (
	"sync"
	"time"
)

// Debouncer runs a fixed function after a quiet period. Rapid successive
// Schedule calls reset the timer so only the last one fires. Flush runs a
// pending task immediately, which lets tests persist deterministically
// instead of racing a timer.
type Debouncer struct {
	mu      sync.Mutex
	timer   *time.Timer
	pending bool
	delay   time.Duration
	fn      func()
}

// NewDebouncer creates a debouncer that runs fn after delay.
func NewDebouncer(delay time.Duration, fn func()) *Debouncer {
	return &Debouncer{delay: delay, fn: fn}
}

// Schedule arms (or re-arms) the timer.
func (d *Debouncer) Schedule() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.pending = true
	d.timer = time.AfterFunc(d.delay, d.fire)
}

// Flush runs the task now if one is pending.
func (d *Debouncer) Flush() {
	d.mu.Lock()
	if !d.pending {
		d.mu.Unlock()
		return
	}
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.pending = false
	d.mu.Unlock()

	d.fn()
}

// Stop cancels any pending task without running it.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.pending = false
}

// Pending reports whether a task is armed.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending
}

func (d *Debouncer) fire() {
	d.mu.Lock()
	if !d.pending {
		d.mu.Unlock()
		return
	}
	d.pending = false
	d.timer = nil
	d.mu.Unlock()

	d.fn()
}
