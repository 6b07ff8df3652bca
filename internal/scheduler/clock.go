package scheduler

import (
	"sync/atomic"
	"time"
)

// clock hands out strictly increasing UTC timestamps at microsecond
// resolution, the finest precision every store keeps. Entries created in
// sequence therefore never share a createdAt.
type clock struct {
	now  func() time.Time
	last atomic.Int64 // unix microseconds
}

func newClock(now func() time.Time) *clock {
	return &clock{now: now}
}

func (c *clock) Now() time.Time {
	for {
		last := c.last.Load()
		n := c.now().UnixMicro()
		if n <= last {
			n = last + 1
		}
		if c.last.CompareAndSwap(last, n) {
			return time.UnixMicro(n).UTC()
		}
	}
}
