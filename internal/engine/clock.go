package engine

import "sync/atomic"

// Clock is a monotonic logical clock for event sequencing.
//
// Every lifecycle event carries a strictly increasing seq number from this
// clock, the tiebreaker when two events share a wall-clock timestamp. The
// total order on events for one key is (timestamp, seq).
//
// Thread-safety: safe for concurrent use (atomic operations).
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a clock starting at 0; the first Next returns 1.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a clock resuming from a specific sequence number,
// so a restarted process continues above the last persisted seq.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// AdvanceTo raises the clock to at least n, so the next Next returns
// n+1. A value at or below the current position is ignored.
func (c *Clock) AdvanceTo(n int64) {
	for {
		cur := c.seq.Load()
		if cur >= n || c.seq.CompareAndSwap(cur, n) {
			return
		}
	}
}

// Next returns the next sequence number and advances the clock.
// Each call returns a unique, increasing value.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the current sequence number without advancing.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
