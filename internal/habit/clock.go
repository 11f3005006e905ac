package habit

import "time"

// Clock supplies the current time to the engine, one reading per call.
//
// The engine never consults the wall clock directly: time is an injected
// dependency so the state machine is testable with synthetic clocks. The
// host guarantees readings never decrease across calls and have at least
// second granularity.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the operating system clock, truncated to whole seconds
// to match the store's timestamp resolution.
type SystemClock struct{}

// Now implements Clock.
func (SystemClock) Now() time.Time {
	return time.Now().Truncate(time.Second)
}
