// Package clock abstracts wall-clock time so timer-driven code can be run
// against virtual time in tests.
package clock

import "time"

// Timer is a pending deferred call. Stop reports whether it prevented the call.
type Timer interface {
	Stop() bool
}

type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type system struct{}

// System returns the real wall clock backed by time.AfterFunc.
func System() Clock { return system{} }

func (system) Now() time.Time { return time.Now() }

func (system) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
