package utils

import (
	"sync"
	"time"
)

// Timer is a handle to a scheduled callback.
type Timer interface {
	// Stop cancels the callback. It reports false if the callback already
	// ran or was already stopped.
	Stop() bool
}

// Scheduler runs f once after d.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// WallScheduler schedules on real time.
type WallScheduler struct{}

func (WallScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Debouncer keeps at most one pending callback. Every Schedule cancels the
// previous handle before arming a new one.
type Debouncer struct {
	mu      sync.Mutex
	sched   Scheduler
	delay   time.Duration
	current Timer
}

// NewDebouncer returns a debouncer firing delay after the last Schedule.
func NewDebouncer(sched Scheduler, delay time.Duration) *Debouncer {
	if sched == nil {
		sched = WallScheduler{}
	}
	return &Debouncer{sched: sched, delay: delay}
}

// Schedule cancels any pending callback and arms f.
func (d *Debouncer) Schedule(f func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.current != nil {
		d.current.Stop()
	}
	d.current = d.sched.AfterFunc(d.delay, f)
}

// Cancel stops the pending callback, if any. It reports whether one was
// stopped before it fired.
func (d *Debouncer) Cancel() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.current == nil {
		return false
	}
	stopped := d.current.Stop()
	d.current = nil
	return stopped
}

// Delay returns the configured delay.
func (d *Debouncer) Delay() time.Duration { return d.delay }
