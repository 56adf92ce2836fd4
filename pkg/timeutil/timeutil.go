// Package timeutil provides the reference clock of the engine.
// Activity dates are calendar days observed in one configured timezone, so
// every "today" in the process comes from a Clock bound to that location.
// No external dependencies - uses only standard library.
package timeutil

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Clock tells the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock in a fixed location.
type SystemClock struct {
	loc *time.Location
}

// NewSystemClock returns a clock reporting time in loc (UTC when nil).
func NewSystemClock(loc *time.Location) SystemClock {
	if loc == nil {
		loc = time.UTC
	}
	return SystemClock{loc: loc}
}

// Now returns the current time in the clock's location.
func (c SystemClock) Now() time.Time {
	if c.loc == nil {
		return time.Now().UTC()
	}
	return time.Now().In(c.loc)
}

// Location returns the reference location.
func (c SystemClock) Location() *time.Location {
	if c.loc == nil {
		return time.UTC
	}
	return c.loc
}

// FixedClock is a manually driven clock for tests and replays.
type FixedClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewFixedClock returns a clock frozen at t.
func NewFixedClock(t time.Time) *FixedClock {
	return &FixedClock{now: t}
}

// Now returns the frozen time.
func (c *FixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Set moves the clock to t.
func (c *FixedClock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

// Advance moves the clock forward by d.
func (c *FixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// AdvanceDays moves the clock forward by n calendar days.
func (c *FixedClock) AdvanceDays(n int) {
	c.mu.Lock()
	c.now = c.now.AddDate(0, 0, n)
	c.mu.Unlock()
}

// LoadLocation resolves a timezone name. Besides IANA names ("Europe/Paris")
// it accepts "UTC", "Local" and fixed offsets such as "+05:00" or "-0330".
func LoadLocation(name string) (*time.Location, error) {
	name = strings.TrimSpace(name)
	switch strings.ToUpper(name) {
	case "", "UTC", "Z":
		return time.UTC, nil
	case "LOCAL":
		return time.Local, nil
	}

	if name[0] == '+' || name[0] == '-' {
		return parseOffset(name)
	}

	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("timeutil: unknown timezone %q: %w", name, err)
	}
	return loc, nil
}

func parseOffset(s string) (*time.Location, error) {
	layouts := []string{"-07:00", "-0700", "-07"}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			_, offset := t.Zone()
			return time.FixedZone("UTC"+s, offset), nil
		}
	}
	return nil, fmt.Errorf("timeutil: invalid UTC offset %q", s)
}
