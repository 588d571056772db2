package sim

import "time"

// Clock abstracts scheduling so tests can drive the simulation without real
// timers.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time                         { return time.Now() }
func (systemClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// SystemClock returns the wall-clock implementation.
func SystemClock() Clock { return systemClock{} }
