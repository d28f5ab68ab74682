package tracking

import (
	"sync"
	"time"
)

// Clock provides the current time to the session engine.
type Clock interface {
	Now() time.Time
}

// RealClock provides actual system time.
type RealClock struct{}

// Now returns the current system time.
func (RealClock) Now() time.Time {
	return time.Now()
}

// ManualClock is a Clock that only moves when told to.
type ManualClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewManualClock returns a clock frozen at t.
func NewManualClock(t time.Time) *ManualClock {
	return &ManualClock{now: t}
}

// Now returns the clock's current time.
func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Set moves the clock to t.
func (c *ManualClock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

// Advance moves the clock forward by d.
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// ElapsedMs returns the active time of a session in milliseconds.
//
// While paused (pauseStartMs set) the value is frozen at the moment the pause
// began. The same arithmetic serves live polling and the final duration.
func ElapsedMs(nowMs, startMs, totalPausedMs int64, pauseStartMs *int64) int64 {
	if pauseStartMs != nil {
		return *pauseStartMs - startMs - totalPausedMs
	}
	return nowMs - startMs - totalPausedMs
}
