package dispatch

import "time"

// Clock supplies "now" to message constructors. Reducers never read
// the wall clock themselves; time always travels inside the message so
// a reduce is reproducible.
type Clock interface {
	Now() time.Time
}

// WallClock reads the system clock in UTC.
type WallClock struct{}

func (WallClock) Now() time.Time { return time.Now().UTC() }

// FixedClock returns a predetermined instant, advancing by Step on
// each call when Step is non-zero. Test use.
type FixedClock struct {
	At   time.Time
	Step time.Duration
}

func (c *FixedClock) Now() time.Time {
	now := c.At
	c.At = c.At.Add(c.Step)
	return now
}
