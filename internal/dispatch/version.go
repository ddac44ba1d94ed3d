package dispatch

import "sync/atomic"

// Counter is the monotonic version counter bumped after every completed
// dispatch. Safe for concurrent use.
type Counter struct {
	v atomic.Uint64
}

// NewCounterAt creates a counter starting at a specific version.
func NewCounterAt(start uint64) *Counter {
	c := &Counter{}
	c.v.Store(start)
	return c
}

// Next increments the counter and returns the new version.
func (c *Counter) Next() uint64 {
	return c.v.Add(1)
}

// Current returns the current version without incrementing.
func (c *Counter) Current() uint64 {
	return c.v.Load()
}
