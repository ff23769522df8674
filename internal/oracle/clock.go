package oracle

import (
	"sync/atomic"
	"time"
)

// Clock supplies the logical time stamped on every write.
type Clock interface {
	// Now returns the current time in nanoseconds. Successive calls never
	// return a smaller value.
	Now() uint64
}

// MonotonicClock is a nanosecond wall clock that never runs backwards.
//
// If the wall clock steps back (NTP adjustment, restart on a host with a
// skewed clock) Now keeps returning the last value handed out until the
// wall clock catches up. Values are non-decreasing, not strictly increasing.
//
// Thread-safety: MonotonicClock is safe for concurrent use.
type MonotonicClock struct {
	last atomic.Uint64
	wall func() time.Time
}

// NewClock creates a clock reading the system wall clock.
func NewClock() *MonotonicClock {
	return &MonotonicClock{wall: time.Now}
}

// NewClockAt creates a clock that never returns less than start.
// Used on restart to resume after the newest stored timestamp.
func NewClockAt(start uint64) *MonotonicClock {
	c := NewClock()
	c.last.Store(start)
	return c
}

// Now implements Clock.
func (c *MonotonicClock) Now() uint64 {
	wall := c.wall().UnixNano()
	var now uint64
	if wall > 0 {
		now = uint64(wall)
	}
	for {
		last := c.last.Load()
		if now <= last {
			return last
		}
		if c.last.CompareAndSwap(last, now) {
			return now
		}
	}
}
