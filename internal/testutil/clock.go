// Package testutil provides deterministic clock and token implementations
// for tests and golden trace comparison.
package testutil

import (
	"sync"
	"time"

	"github.com/spencerwilf/proof-of-habit/internal/habit"
)

// BaseTime is the fixed starting instant for deterministic tests.
// Whole seconds, UTC, so timestamps survive the store's unix round-trip.
var BaseTime = time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)

// ManualClock is a settable clock for tests.
//
// Unlike habit.SystemClock it never moves on its own: tests advance it
// explicitly, which makes cadence and expiry boundaries exact.
//
// Thread-safety: all methods are safe for concurrent use via internal mutex.
type ManualClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewManualClock creates a clock frozen at BaseTime.
func NewManualClock() *ManualClock {
	return &ManualClock{now: BaseTime}
}

// NewManualClockAt creates a clock frozen at the given instant.
func NewManualClockAt(t time.Time) *ManualClock {
	return &ManualClock{now: t}
}

// Now implements habit.Clock.
func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d. Never call with a negative duration -
// the engine assumes time does not decrease across calls.
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Set moves the clock to an absolute instant.
func (c *ManualClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

var _ habit.Clock = (*ManualClock)(nil)
