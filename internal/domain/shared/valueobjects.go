// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import (
	"strings"
	"time"
)

// ═══════════════════════════════════════════════════════════════════════════
// ID Value Objects
// ═══════════════════════════════════════════════════════════════════════════

// UserID identifies an authenticated user. Identity itself is owned by the
// caller; the engine only requires a stable, non-empty key.
type UserID string

// IsValid checks if the user ID is usable as a key.
func (u UserID) IsValid() bool {
	return strings.TrimSpace(string(u)) != ""
}

// String returns the string representation.
func (u UserID) String() string {
	return string(u)
}

// ItemID identifies a content item (article) a quiz belongs to.
type ItemID string

// IsValid checks if the item ID is usable as a key.
func (i ItemID) IsValid() bool {
	return strings.TrimSpace(string(i)) != ""
}

// String returns the string representation.
func (i ItemID) String() string {
	return string(i)
}

// BadgeID identifies a badge catalog entry.
type BadgeID int64

// ═══════════════════════════════════════════════════════════════════════════
// Calendar Date Value Object
// ═══════════════════════════════════════════════════════════════════════════

// DateLayout is the wire and storage format of a Date.
const DateLayout = "2006-01-02"

// Date is a calendar day without a time of day or zone. It is stored as
// midnight UTC so that two dates always differ by a whole number of days.
// The zero value means "no date".
type Date struct {
	t time.Time
}

// NewDate creates a Date from its components.
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf returns the calendar day of t as observed in t's own location.
func DateOf(t time.Time) Date {
	if t.IsZero() {
		return Date{}
	}
	return NewDate(t.Year(), t.Month(), t.Day())
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, WrapError("shared", "ParseDate", ErrInvalidFormat, "date must be formatted as YYYY-MM-DD", err)
	}
	return DateOf(t), nil
}

// IsZero reports whether d is the "no date" value.
func (d Date) IsZero() bool {
	return d.t.IsZero()
}

// AddDays returns the date n days after d (n may be negative).
func (d Date) AddDays(n int) Date {
	return Date{t: d.t.AddDate(0, 0, n)}
}

// DaysSince returns the number of calendar days from other to d.
// It is positive when d is after other.
func (d Date) DaysSince(other Date) int {
	return int(d.t.Sub(other.t).Hours() / 24)
}

// Before reports whether d is strictly before other.
func (d Date) Before(other Date) bool {
	return d.t.Before(other.t)
}

// After reports whether d is strictly after other.
func (d Date) After(other Date) bool {
	return d.t.After(other.t)
}

// Equal reports whether d and other are the same day.
func (d Date) Equal(other Date) bool {
	return d.t.Equal(other.t)
}

// Time returns midnight UTC of the day.
func (d Date) Time() time.Time {
	return d.t
}

// String returns the YYYY-MM-DD representation, or "" for the zero Date.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.t.Format(DateLayout)
}

// MarshalText implements encoding.TextMarshaler.
func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Date) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
