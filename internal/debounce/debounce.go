// Package debounce coalesces bursts of calls into a single delayed invocation.
package debounce

import (
	"sync"
	"time"
)

// DefaultDelay is the quiet period used for free-text search.
const DefaultDelay = 300 * time.Millisecond

// Timer is a scheduled callback.
type Timer interface {
	Stop() bool
}

// Clock schedules callbacks.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// RealClock schedules with time.AfterFunc.
var RealClock Clock = realClock{}

// Option configures a Debouncer.
type Option func(*Debouncer)

// WithClock replaces the clock, for tests.
func WithClock(c Clock) Option {
	return func(d *Debouncer) {
		if c != nil {
			d.clock = c
		}
	}
}

// Debouncer runs only the last function scheduled within a quiet period. Each Schedule
// cancels the pending call. A superseded call never runs, even when its timer fired
// concurrently with the newer Schedule.
//
// Scheduled functions run on the clock's goroutine while the debouncer is locked: they
// must not call Schedule or Cancel on the same Debouncer.
type Debouncer struct {
	mu    sync.Mutex
	delay time.Duration
	clock Clock
	timer Timer
	gen   uint64
}

// New returns a Debouncer. A negative delay selects DefaultDelay.
func New(delay time.Duration, opts ...Option) *Debouncer {
	if delay < 0 {
		delay = DefaultDelay
	}
	d := &Debouncer{delay: delay, clock: RealClock}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Delay returns the quiet period.
func (d *Debouncer) Delay() time.Duration {
	return d.delay
}

// Schedule cancels any pending call and runs fn after the quiet period.
func (d *Debouncer) Schedule(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopLocked()
	gen := d.gen
	d.timer = d.clock.AfterFunc(d.delay, func() { d.fire(gen, fn) })
}

// Cancel drops the pending call. It reports whether a call was pending.
func (d *Debouncer) Cancel() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	pending := d.timer != nil
	d.stopLocked()
	return pending
}

// Pending reports whether a call is scheduled.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.timer != nil
}

func (d *Debouncer) stopLocked() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.gen++
}

func (d *Debouncer) fire(gen uint64, fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if gen != d.gen {
		return
	}
	d.timer = nil
	d.gen++
	fn()
}

// Wrap returns a function that debounces calls to fn through d. Only the argument of the
// last call in a burst reaches fn.
func Wrap[T any](d *Debouncer, fn func(T)) func(T) {
	return func(v T) {
		d.Schedule(func() { fn(v) })
	}
}
