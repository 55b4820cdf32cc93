// Package clock abstracts time for the pipeline so cache expiry and
// peak-window checks are testable.
package clock

import "time"

// Clock returns the current time.
type Clock interface {
	Now() time.Time
}

// System implements Clock using time.Now.
type System struct{}

// NewSystem creates a real clock.
func NewSystem() *System {
	return &System{}
}

// Now returns the current local time. Local (not UTC) on purpose: the
// upstream site publishes everything in its own timezone and the peak
// windows are defined against that wall clock.
func (System) Now() time.Time {
	return time.Now()
}
