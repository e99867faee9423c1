// Package clock abstracts the wall clock so timer-driven loops can be driven
// by a virtual clock in tests.
package clock

import "time"

// Clock is the time source used by the metronome and the trainer.
type Clock interface {
	Now() time.Time
	// AfterFunc calls f in its own goroutine (Real) or during Advance (Fake)
	// once d has elapsed.
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is a pending AfterFunc call.
type Timer interface {
	// Stop prevents the call from firing. It reports whether the call was
	// still pending.
	Stop() bool
}

// Real is the system clock.
type Real struct{}

func (Real) Now() time.Time { return time.Now() }

func (Real) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
