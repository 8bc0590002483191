package game

import "time"

// Clock supplies wall-clock time for the weapon cooldown. Motion never
// reads it; motion advances with the tick counter.
type Clock interface {
	Now() time.Time
}

// SystemClock reads time.Now.
type SystemClock struct{}

// Now returns the current time.
func (SystemClock) Now() time.Time {
	return time.Now()
}

// StepClock is a manually advanced clock. The recorder uses it to replay a
// match faster than real time while keeping cooldowns tick-consistent.
type StepClock struct {
	now time.Time
}

// NewStepClock starts a StepClock at start.
func NewStepClock(start time.Time) *StepClock {
	return &StepClock{now: start}
}

// Now returns the current simulated time.
func (c *StepClock) Now() time.Time {
	return c.now
}

// Advance moves the clock forward by d.
func (c *StepClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}
