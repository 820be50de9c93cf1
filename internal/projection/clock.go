package projection

import "sync/atomic"

// Clock is a monotonic logical clock for action ordering.
//
// Every logged action is stamped with a strictly increasing seq from this
// clock, so log order never depends on wall time.
//
// Thread-safety: Clock is safe for concurrent use (atomic operations).
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a new clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// Next returns the next sequence number and increments the clock.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}
