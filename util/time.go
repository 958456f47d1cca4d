package util

import (
	"sync"
	"time"
)

type (
	// Clock is the time source of every component that decays or expires.
	Clock interface {
		Now() time.Time
	}

	systemClock struct{}

	// ManualClock only moves when told to.
	ManualClock struct {
		lock sync.Mutex
		now  time.Time
	}
)

// SystemClock reads the wall clock.
var SystemClock Clock = systemClock{}

func (systemClock) Now() time.Time {
	return time.Now()
}

func NewManualClock(start time.Time) *ManualClock {
	return &ManualClock{now: start}
}

func (c *ManualClock) Now() time.Time {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.now
}

func (c *ManualClock) Advance(d time.Duration) time.Time {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.now = c.now.Add(d)
	return c.now
}

func (c *ManualClock) Set(t time.Time) {
	c.lock.Lock()
	c.now = t
	c.lock.Unlock()
}
