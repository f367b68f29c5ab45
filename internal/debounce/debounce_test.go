package debounce

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock fires timers only when advanced.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Duration
	timers []*fakeTimer
}

type fakeTimer struct {
	clock   *fakeClock
	at      time.Duration
	f       func()
	stopped bool
	fired   bool
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, at: c.now + d, f: f}
	c.timers = append(c.timers, t)
	return t
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	active := !t.stopped && !t.fired
	t.stopped = true
	return active
}

func (c *fakeClock) Now() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves time forward, firing due timers in order outside the clock lock.
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now + d
	c.mu.Unlock()

	for {
		c.mu.Lock()
		var next *fakeTimer
		for _, t := range c.timers {
			if t.stopped || t.fired || t.at > target {
				continue
			}
			if next == nil || t.at < next.at {
				next = t
			}
		}
		if next == nil {
			c.now = target
			c.mu.Unlock()
			return
		}
		c.now = next.at
		next.fired = true
		c.mu.Unlock()
		next.f()
	}
}

type call struct {
	at  time.Duration
	arg string
}

func TestDebouncer_OnlyLastCallRuns(t *testing.T) {
	clock := &fakeClock{}
	d := New(300*time.Millisecond, WithClock(clock))

	var calls []call
	search := Wrap(d, func(q string) {
		calls = append(calls, call{at: clock.Now(), arg: q})
	})

	search("a")
	clock.Advance(100 * time.Millisecond)
	search("ac")
	clock.Advance(50 * time.Millisecond)
	search("acm")
	assert.True(t, d.Pending())

	clock.Advance(299 * time.Millisecond)
	assert.Empty(t, calls)

	clock.Advance(time.Millisecond)
	require.Len(t, calls, 1)
	assert.Equal(t, call{at: 450 * time.Millisecond, arg: "acm"}, calls[0])
	assert.False(t, d.Pending())

	clock.Advance(time.Second)
	assert.Len(t, calls, 1)
}

func TestDebouncer_Cancel(t *testing.T) {
	clock := &fakeClock{}
	d := New(300*time.Millisecond, WithClock(clock))

	ran := false
	d.Schedule(func() { ran = true })
	assert.True(t, d.Cancel())
	assert.False(t, d.Cancel())

	clock.Advance(time.Second)
	assert.False(t, ran)
	assert.False(t, d.Pending())
}

func TestDebouncer_SupersededTimerThatAlreadyFiredIsIgnored(t *testing.T) {
	clock := &fakeClock{}
	d := New(300*time.Millisecond, WithClock(clock))

	var got []string
	d.Schedule(func() { got = append(got, "stale") })
	stale := clock.timers[0].f

	d.Schedule(func() { got = append(got, "fresh") })
	// The first timer's goroutine was already running when the second Schedule stopped it.
	stale()
	assert.Empty(t, got)

	clock.Advance(300 * time.Millisecond)
	assert.Equal(t, []string{"fresh"}, got)
}

func TestDebouncer_Defaults(t *testing.T) {
	assert.Equal(t, DefaultDelay, New(-1).Delay())
	assert.Equal(t, 50*time.Millisecond, New(50*time.Millisecond).Delay())
}

func TestDebouncer_RealClock(t *testing.T) {
	d := New(20 * time.Millisecond)

	var count atomic.Int32
	var last atomic.Value
	fn := Wrap(d, func(q string) {
		count.Add(1)
		last.Store(q)
	})
	for _, q := range []string{"a", "ab", "abc"} {
		fn(q)
	}

	assert.Eventually(t, func() bool { return count.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), count.Load())
	assert.Equal(t, "abc", last.Load())
}
