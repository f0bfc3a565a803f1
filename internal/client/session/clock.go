package session

import (
	"sync"
	"time"
)

// Timer is the handle of a deferred callback.
type Timer interface {
	Stop() bool
}

// TimeSource supplies the current time and deferred callbacks.
type TimeSource interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type realTime struct{}

func (realTime) Now() time.Time { return time.Now() }

func (realTime) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// RealTime is the wall clock.
func RealTime() TimeSource { return realTime{} }

// Clock arms a single refresh callback ahead of credential expiry.
type Clock struct {
	ts   TimeSource
	lead time.Duration
	fire func()

	mu    sync.Mutex
	timer Timer
	gen   uint64
}

// NewClock returns a clock that calls fire lead before each scheduled expiry.
func NewClock(ts TimeSource, lead time.Duration, fire func()) *Clock {
	if ts == nil {
		ts = RealTime()
	}
	return &Clock{ts: ts, lead: lead, fire: fire}
}

// Schedule replaces any armed callback with one firing at expiresAt-lead,
// or immediately when that moment has passed. It returns the delay used.
func (c *Clock) Schedule(expiresAt time.Time) time.Duration {
	delay := expiresAt.Sub(c.ts.Now()) - c.lead
	if delay < 0 {
		delay = 0
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopLocked()
	gen := c.gen
	c.timer = c.ts.AfterFunc(delay, func() { c.run(gen) })
	return delay
}

// Cancel disarms the pending callback, if any.
func (c *Clock) Cancel() {
	c.mu.Lock()
	c.stopLocked()
	c.mu.Unlock()
}

// Armed reports whether a callback is pending.
func (c *Clock) Armed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.timer != nil
}

func (c *Clock) stopLocked() {
	c.gen++
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

// run is the timer body. A callback from a superseded schedule is dropped
// even if its timer could not be stopped in time.
func (c *Clock) run(gen uint64) {
	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return
	}
	c.timer = nil
	c.mu.Unlock()

	c.fire()
}
