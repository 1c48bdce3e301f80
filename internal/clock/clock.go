// Package clock abstracts time so services can be tested at a fixed instant.
package clock

import "time"

// Clock supplies the current time to services.
type Clock interface {
	Now() time.Time
}

// System returns a clock backed by time.Now, normalized to UTC.
func System() Clock {
	return clockFunc(func() time.Time { return time.Now().UTC() })
}

// Fixed returns a clock frozen at t (for tests).
func Fixed(t time.Time) Clock {
	frozen := t.UTC()
	return clockFunc(func() time.Time { return frozen })
}

type clockFunc func() time.Time

func (f clockFunc) Now() time.Time { return f() }
