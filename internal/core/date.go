// Package core holds the domain value types shared by every layer:
// calendar dates, instants, money amounts and the república entities.
//
// The upstream API is sloppy about time: due dates arrive sometimes as plain
// dates and sometimes as timestamps, with or without a UTC marker. This file
// pins that down into two explicit types so the rest of the code never has to
// sniff strings for a trailing "Z".
package core

import (
	"errors"
	"strings"
	"time"
)

// CalendarDate is a date with no time-of-day component. It is stored as UTC
// midnight and compared by calendar date only, so a due date never shifts
// across a day boundary because of timezone drift.
type CalendarDate struct {
	time.Time
}

// Instant is a UTC-based point in time (a payment timestamp). It is converted
// to a display timezone only when rendered.
type Instant struct {
	time.Time
}

// DisplayLocation is the timezone used when rendering instants.
const DisplayLocation = "America/Sao_Paulo"

var ErrInvalidDate = errors.New("invalid date")

// NewCalendarDate builds a date at UTC midnight.
func NewCalendarDate(year, month, day int) CalendarDate {
	return CalendarDate{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates any instant to its UTC calendar date.
func DateOf(t time.Time) CalendarDate {
	y, m, d := t.UTC().Date()
	return NewCalendarDate(y, int(m), d)
}

// Today returns the current calendar date in UTC.
func Today() CalendarDate {
	return DateOf(time.Now())
}

// ParseCalendarDate accepts both date-only strings ("2024-05-01") and full
// timestamps. A timestamp without an explicit UTC marker is treated as UTC,
// never as local time, before the time component is discarded.
func ParseCalendarDate(s string) (CalendarDate, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return CalendarDate{}, ErrInvalidDate
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return DateOf(t), nil
	}
	t, err := parseUTCTimestamp(s)
	if err != nil {
		return CalendarDate{}, err
	}
	return DateOf(t), nil
}

// ParseInstant parses a timestamp, assuming UTC when no offset is present.
func ParseInstant(s string) (Instant, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Instant{}, ErrInvalidDate
	}
	t, err := parseUTCTimestamp(s)
	if err != nil {
		return Instant{}, err
	}
	return Instant{Time: t.UTC()}, nil
}

func parseUTCTimestamp(s string) (time.Time, error) {
	layouts := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04:05.999999999", // no offset: treat as UTC
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006-01-02",
	}
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, ErrInvalidDate
}

// Before reports whether d is strictly before other, comparing dates only.
func (d CalendarDate) Before(other CalendarDate) bool {
	return d.Time.Before(other.Time)
}

// After reports whether d is strictly after other, comparing dates only.
func (d CalendarDate) After(other CalendarDate) bool {
	return d.Time.After(other.Time)
}

// Equal reports whether the two values are the same calendar date.
func (d CalendarDate) Equal(other CalendarDate) bool {
	return d.Time.Equal(other.Time)
}

func (d CalendarDate) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// String renders ISO format, the wire representation.
func (d CalendarDate) String() string {
	return d.Format("2006-01-02")
}

// Display renders the Brazilian dd/mm/yyyy form used in reports.
func (d CalendarDate) Display() string {
	return d.Format("02/01/2006")
}

// Display renders the instant in the São Paulo timezone. The stored value
// stays UTC; only the rendering converts.
func (i Instant) Display() string {
	loc, err := time.LoadLocation(DisplayLocation)
	if err != nil {
		return i.Format("02/01/2006 15:04:05")
	}
	return i.In(loc).Format("02/01/2006 15:04:05")
}
