package testfixtures

import (
	"sync"
	"time"
)

// Clock is a manually driven time source. A nil or zero Clock reads as
// ReferenceTime.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock starts a clock at start, or at ReferenceTime when start is zero.
func NewClock(start time.Time) *Clock {
	return &Clock{now: start}
}

func (c *Clock) Now() time.Time {
	if c == nil {
		return ReferenceTime()
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.now.IsZero() {
		return ReferenceTime()
	}
	return c.now
}

// NowFunc adapts the clock to the services' now parameter.
func (c *Clock) NowFunc() func() time.Time {
	return c.Now
}

func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

// Advance moves the clock forward by d and returns the new time.
func (c *Clock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.now.IsZero() {
		c.now = ReferenceTime()
	}
	c.now = c.now.Add(d)
	return c.now
}

// AdvanceDays moves the clock by whole calendar days, keeping the wall-clock
// hour across DST changes.
func (c *Clock) AdvanceDays(days int) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.now.IsZero() {
		c.now = ReferenceTime()
	}
	c.now = c.now.AddDate(0, 0, days)
	return c.now
}
