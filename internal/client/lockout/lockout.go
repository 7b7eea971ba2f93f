// Package lockout throttles login attempts client-side. It is a UI
// brake against rapid guessing, not a security control: state lives in
// memory and resets with the process.
package lockout

import "time"

const (
	// MaxFailures is how many consecutive failures open the window.
	MaxFailures = 5
	// Window is how long attempts stay refused.
	Window = 5 * time.Minute
)

// Counter tracks consecutive login failures.
type Counter struct {
	failures    int
	lockedUntil time.Time
	now         func() time.Time
}

func New() *Counter {
	return &Counter{now: time.Now}
}

// Locked reports whether attempts are currently refused, and if so for
// how much longer.
func (c *Counter) Locked() (bool, time.Duration) {
	remaining := c.lockedUntil.Sub(c.now())
	if remaining > 0 {
		return true, remaining
	}
	return false, 0
}

// Failure records a failed attempt; the fifth in a row locks the
// counter for the window.
func (c *Counter) Failure() {
	c.failures++
	if c.failures >= MaxFailures {
		c.lockedUntil = c.now().Add(Window)
		c.failures = 0
	}
}

// Success resets the counter.
func (c *Counter) Success() {
	c.failures = 0
	c.lockedUntil = time.Time{}
}
