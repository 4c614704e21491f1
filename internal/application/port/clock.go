package port

import "time"

// Clock provides the current time; injected so the reconciler and the
// decision timestamps are testable
type Clock interface {
	Now() time.Time
}

// SystemClock is the wall-clock implementation
type SystemClock struct{}

// Now returns the current time
func (SystemClock) Now() time.Time {
	return time.Now()
}
