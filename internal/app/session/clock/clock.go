// Package clock provides the shared session countdown read by playback.
package clock

import "sync"

// Reader is the read-only view of a session clock.
type Reader interface {
	Remaining() int
	IsActive() bool
}

// Clock holds the remaining seconds of the current session.
// The session timer is its only writer; everything else reads it through Reader.
type Clock struct {
	mu        sync.RWMutex
	remaining int
	active    bool
}

// New creates a clock in the reset state.
func New() *Clock {
	return &Clock{}
}

// SetRemaining sets the remaining seconds. Negative values are clamped to 0.
func (c *Clock) SetRemaining(seconds int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.remaining = max(0, seconds)
}

// Remaining returns the remaining seconds.
func (c *Clock) Remaining() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.remaining
}

// SetActive marks whether a session is running.
func (c *Clock) SetActive(active bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.active = active
}

// IsActive returns true while a session is running.
func (c *Clock) IsActive() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.active
}

// Arm sets the remaining seconds and marks the session active in one step.
func (c *Clock) Arm(seconds int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.remaining = max(0, seconds)
	c.active = true
}

// Reset returns the clock to {0, inactive}.
func (c *Clock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.remaining = 0
	c.active = false
}
