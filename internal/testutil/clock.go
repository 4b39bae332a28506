package testutil

import (
	"sync"
	"time"
)

// Epoch is the commit time of the first fixture commit.
var Epoch = time.Date(2018, time.March, 1, 12, 0, 0, 0, time.UTC)

// DeterministicClock provides a thread-safe monotonic logical clock for
// fixture commits, so rebuilt fixtures carry identical timestamps and hashes.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type DeterministicClock struct {
	mu  sync.Mutex
	seq int64
}

// NewDeterministicClock creates a new deterministic clock starting at 0.
//
// The first call to Next() returns 1.
func NewDeterministicClock() *DeterministicClock {
	return &DeterministicClock{}
}

// Next increments and returns the next sequence number.
func (c *DeterministicClock) Next() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	return c.seq
}

// Current returns the current sequence number without incrementing.
func (c *DeterministicClock) Current() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seq
}

// NextTime advances the clock and returns Epoch plus one minute per tick.
func (c *DeterministicClock) NextTime() time.Time {
	return Epoch.Add(time.Duration(c.Next()) * time.Minute)
}

// Reset resets the clock to 0.
func (c *DeterministicClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq = 0
}
