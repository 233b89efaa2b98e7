// Package system provides the real clock implementation.
package system

import "time"

// Clock implements gazette.Clock using time.Now. The gazette publishes on
// Brasília time; the location is injected so URL derivation follows the
// publisher's calendar, not the host's.
type Clock struct {
	loc *time.Location
}

// New creates a Clock reporting time in loc, defaulting to local time.
func New(loc *time.Location) *Clock {
	if loc == nil {
		loc = time.Local
	}
	return &Clock{loc: loc}
}

// Now returns the current time in the clock's location.
func (c *Clock) Now() time.Time {
	return time.Now().In(c.loc)
}
