package utils

import (
	"fmt"
	"time"

	"github.com/julianstephens/streakline/internal/constants"
)

// Clock supplies the current instant. Production code uses SystemClock; tests pin time
// with a FixedClock.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// Normalizer converts instants to and from the canonical local-time string used for
// storage and comparison. Every day-boundary calculation goes through it so that raw UTC
// and local arithmetic are never mixed.
type Normalizer struct {
	loc   *time.Location
	clock Clock
}

// NewNormalizer returns a Normalizer anchored to loc. A nil loc means time.Local and a
// nil clock means SystemClock.
func NewNormalizer(loc *time.Location, clock Clock) *Normalizer {
	if loc == nil {
		loc = time.Local
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &Normalizer{loc: loc, clock: clock}
}

// NewNormalizerForTimezone resolves an IANA name (or "Local") and builds a Normalizer
// on the system clock.
func NewNormalizerForTimezone(timezone string) (*Normalizer, error) {
	loc, err := LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", timezone, err)
	}
	return NewNormalizer(loc, nil), nil
}

// Location returns the timezone the normalizer is anchored to.
func (n *Normalizer) Location() *time.Location {
	return n.loc
}

// Now returns the current instant expressed in the normalizer's location.
func (n *Normalizer) Now() time.Time {
	return n.clock.Now().In(n.loc)
}

// Format renders t in canonical storage form.
func (n *Normalizer) Format(t time.Time) string {
	return t.In(n.loc).Format(constants.TimestampFormat)
}

// FormatNow is Format(n.Now()).
func (n *Normalizer) FormatNow() string {
	return n.Format(n.Now())
}

// Parse is the inverse of Format. The returned time is expressed in the normalizer's
// location, so its wall-clock fields match what was written. Values in SQLite's
// CURRENT_TIMESTAMP layout carry no offset and are read as local wall-clock time.
func (n *Normalizer) Parse(s string) (time.Time, error) {
	t, err := time.Parse(constants.TimestampFormat, s)
	if err == nil {
		return t.In(n.loc), nil
	}
	if t, legacyErr := time.ParseInLocation(constants.LegacyTimestampFormat, s, n.loc); legacyErr == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", s, err)
}

// StartOfDay returns local midnight of t's calendar day.
func (n *Normalizer) StartOfDay(t time.Time) time.Time {
	local := t.In(n.loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, n.loc)
}

// EndOfDay returns the last representable instant of t's local calendar day.
func (n *Normalizer) EndOfDay(t time.Time) time.Time {
	return n.StartOfDay(t).AddDate(0, 0, 1).Add(-time.Microsecond)
}

// DaysBetween returns the number of calendar days from earlier's local date to later's
// local date. It works on dates rather than durations, so 23 and 25 hour days around
// DST transitions still count as one day.
func (n *Normalizer) DaysBetween(later, earlier time.Time) int {
	l := later.In(n.loc)
	e := earlier.In(n.loc)
	ld := time.Date(l.Year(), l.Month(), l.Day(), 0, 0, 0, 0, time.UTC)
	ed := time.Date(e.Year(), e.Month(), e.Day(), 0, 0, 0, 0, time.UTC)
	return int(ld.Sub(ed).Hours() / 24)
}

// Day returns t's local date in YYYY-MM-DD form.
func (n *Normalizer) Day(t time.Time) string {
	return t.In(n.loc).Format(constants.DateFormat)
}

// ParseDay parses a YYYY-MM-DD date as local midnight.
func (n *Normalizer) ParseDay(day string) (time.Time, error) {
	return ParseDateInLocation(day, n.loc)
}

// ParseInstant accepts either a full timestamp (RFC 3339 or the canonical format) or a
// plain date, which resolves to local midnight.
func (n *Normalizer) ParseInstant(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.In(n.loc), nil
	}
	if t, err := n.Parse(s); err == nil {
		return t, nil
	}
	t, err := n.ParseDay(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q (expected YYYY-MM-DD or RFC 3339)", s)
	}
	return t, nil
}

// LoadLocation loads a timezone location from an IANA timezone name.
// If the timezone is "Local" or empty, it returns the system's local timezone.
func LoadLocation(timezone string) (*time.Location, error) {
	if timezone == "" || timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(timezone)
}

// ParseDateInLocation parses a date string (YYYY-MM-DD) in the specified timezone.
func ParseDateInLocation(dateStr string, loc *time.Location) (time.Time, error) {
	t, err := time.Parse(constants.DateFormat, dateStr)
	if err != nil {
		return time.Time{}, err
	}
	// Return the date at midnight in the specified timezone
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc), nil
}

// ValidateTimezone checks if the timezone name is valid.
func ValidateTimezone(timezone string) bool {
	if timezone == "" || timezone == "Local" {
		return true
	}
	_, err := time.LoadLocation(timezone)
	return err == nil
}
