package store

import "time"

// A Clock tells the wall-clock time used to stamp records.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the local time of the machine.
type SystemClock struct{}

// Now returns the current local time.
func (SystemClock) Now() time.Time {
	return time.Now()
}
