// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import "time"

// Clock abstracts time for components whose behavior depends on "now":
// milestone stamping, certificate validity, cache expiry, snapshot age.
// Production code uses SystemClock; tests inject a fake.
type Clock interface {
	// Now returns the current time in UTC.
	Now() time.Time
}

// SystemClock is the production Clock backed by time.Now.
type SystemClock struct{}

// Now implements Clock.
func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

// FixedClock is a Clock that returns a settable instant. Intended for tests.
type FixedClock struct {
	Instant time.Time
}

// NewFixedClock creates a FixedClock pinned at the given instant.
func NewFixedClock(at time.Time) *FixedClock {
	return &FixedClock{Instant: at}
}

// Now implements Clock.
func (c *FixedClock) Now() time.Time {
	return c.Instant
}

// Advance moves the clock forward by d.
func (c *FixedClock) Advance(d time.Duration) {
	c.Instant = c.Instant.Add(d)
}
