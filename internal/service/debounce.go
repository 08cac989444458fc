package service

import (
	"sync"
	"time"
)

// debouncer coalesces bursts of trigger requests into one callback after a
// quiet delay. It is a single-slot timer: scheduling cancels any pending
// timer, so rapid local edits produce exactly one sync trigger.
type debouncer struct {
	delay time.Duration
	fn    func()

	mu      sync.Mutex
	timer   *time.Timer
	stopped bool
}

func newDebouncer(delay time.Duration, fn func()) *debouncer {
	return &debouncer{delay: delay, fn: fn}
}

// Trigger (re)schedules the callback to fire after the quiet delay.
func (d *debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, d.fn)
}

// Stop cancels any pending timer and rejects future triggers. A callback
// already started keeps running; Stop does not wait for it.
func (d *debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
