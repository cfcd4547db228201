// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"sync"
	"time"
)

// StepClock is a deterministic clock: every Now call returns the previous
// reading advanced by Step. Code that measures a duration as two Now calls
// therefore always sees exactly Step.
type StepClock struct {
	mu      sync.Mutex
	current time.Time
	Step    time.Duration
}

// NewStepClock starts at a fixed reference time when start is zero.
func NewStepClock(start time.Time, step time.Duration) *StepClock {
	if start.IsZero() {
		start = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	}
	return &StepClock{current: start, Step: step}
}

// Now returns the current reading and advances the clock.
func (c *StepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.current
	c.current = c.current.Add(c.Step)
	return now
}

// Peek returns the next reading without advancing.
func (c *StepClock) Peek() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}
