package testutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestManualClock_StartsAtBaseTime(t *testing.T) {
	c := NewManualClock()
	assert.Equal(t, BaseTime, c.Now())
}

func TestManualClock_Advance(t *testing.T) {
	c := NewManualClock()
	c.Advance(24 * time.Hour)
	assert.Equal(t, BaseTime.Add(24*time.Hour), c.Now())

	c.Advance(time.Hour)
	assert.Equal(t, BaseTime.Add(25*time.Hour), c.Now())
}

func TestManualClock_Set(t *testing.T) {
	c := NewManualClock()
	target := BaseTime.Add(72 * time.Hour)
	c.Set(target)
	assert.Equal(t, target, c.Now())
}

func TestManualClock_DoesNotDrift(t *testing.T) {
	c := NewManualClockAt(BaseTime)
	first := c.Now()
	second := c.Now()
	assert.Equal(t, first, second, "clock must not move without Advance")
}

func TestBaseTime_WholeSecondsUTC(t *testing.T) {
	// The store keeps unix-second timestamps; a fractional base would make
	// round-tripped times differ from clock readings.
	assert.Zero(t, BaseTime.Nanosecond())
	assert.Equal(t, time.UTC, BaseTime.Location())
}
