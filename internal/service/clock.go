package service

import "time"

// SystemClock implements port.Clock with the wall clock.
type SystemClock struct{}

// Now returns the current time.
func (SystemClock) Now() time.Time { return time.Now() }
