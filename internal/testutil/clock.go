// Package testutil holds helpers shared by tests of timer driven packages.
package testutil

import (
	"sort"
	"sync"
	"time"

	"pegfall/internal/clock"
)

// ManualClock fires timers only when Advance moves time past their
// deadline. Callbacks run synchronously on the goroutine calling Advance.
type ManualClock struct {
	mu     sync.Mutex
	now    time.Duration
	nextID uint64
	timers map[uint64]*manualTimer
}

var _ clock.Clock = (*ManualClock)(nil)

func NewManualClock() *ManualClock {
	return &ManualClock{timers: make(map[uint64]*manualTimer)}
}

type manualTimer struct {
	c  *ManualClock
	id uint64
	at time.Duration
	f  func()
}

func (t *manualTimer) Stop() bool {
	t.c.mu.Lock()
	defer t.c.mu.Unlock()
	if _, ok := t.c.timers[t.id]; !ok {
		return false
	}
	delete(t.c.timers, t.id)
	return true
}

func (c *ManualClock) AfterFunc(d time.Duration, f func()) clock.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	t := &manualTimer{c: c, id: c.nextID, at: c.now + d, f: f}
	c.timers[t.id] = t
	return t
}

// Advance moves the clock forward and fires every timer that became due,
// earliest first. Timers armed by a callback fire in the same call if they
// fall inside the window.
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now + d
	c.mu.Unlock()

	for {
		c.mu.Lock()
		due := c.dueLocked(target)
		if due == nil {
			c.now = target
			c.mu.Unlock()
			return
		}
		delete(c.timers, due.id)
		c.now = due.at
		c.mu.Unlock()

		due.f()
	}
}

func (c *ManualClock) dueLocked(target time.Duration) *manualTimer {
	var due []*manualTimer
	for _, t := range c.timers {
		if t.at <= target {
			due = append(due, t)
		}
	}
	if len(due) == 0 {
		return nil
	}
	sort.Slice(due, func(i, j int) bool {
		if due[i].at != due[j].at {
			return due[i].at < due[j].at
		}
		return due[i].id < due[j].id
	})
	return due[0]
}

// Pending returns the number of armed timers.
func (c *ManualClock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.timers)
}

// Now returns the elapsed manual time.
func (c *ManualClock) Now() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}
