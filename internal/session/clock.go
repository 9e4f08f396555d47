package session

import "time"

// Clock is the injected time source for sessions and recorders. The
// aggregate never reads the OS clock directly, so tests can drive time
// deterministically and a broken time provider surfaces as a session
// failure instead of silent bad data.
type Clock interface {
	Now() (time.Time, error)
}

// SystemClock reads the OS monotonic clock
type SystemClock struct{}

// Now returns the current time. The system clock never fails.
func (SystemClock) Now() (time.Time, error) {
	return time.Now(), nil
}
