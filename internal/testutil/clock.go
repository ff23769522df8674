package testutil

import "sync"

// DeterministicClock is a thread-safe logical clock for tests.
//
// Each call to Now advances the clock by Step, so a scenario replayed from a
// fresh clock stamps identical timestamps. It satisfies oracle.Clock.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type DeterministicClock struct {
	mu   sync.Mutex
	seq  uint64
	step uint64
}

// NewDeterministicClock creates a clock starting at 0 advancing by 1.
//
// The first call to Now() returns 1.
func NewDeterministicClock() *DeterministicClock {
	return NewDeterministicClockAt(0, 1)
}

// NewDeterministicClockAt creates a clock starting at start advancing by step.
// A zero step makes the clock stand still, which is useful for checking that
// equal timestamps are accepted.
func NewDeterministicClockAt(start, step uint64) *DeterministicClock {
	return &DeterministicClock{seq: start, step: step}
}

// Now advances the clock and returns the new value.
func (c *DeterministicClock) Now() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq += c.step
	return c.seq
}

// Current returns the current value without advancing.
func (c *DeterministicClock) Current() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seq
}

// Reset rewinds the clock to 0.
func (c *DeterministicClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq = 0
}
