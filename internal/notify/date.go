package notify

import (
	"strings"
	"time"
)

// DateValue is an optional calendar date. The last-sent marker arrives
// from storage or external callers in several shapes (a date, a full
// timestamp, an ISO-8601 "YYYY-MM-DD" string); each constructor
// normalizes its input, and anything unparseable collapses to the zero
// (unknown) value, which compares equal to no day.
type DateValue struct {
	t     time.Time
	known bool
}

// NoDate is the unknown/absent date.
var NoDate = DateValue{}

// DateOf wraps a date or datetime value. The zero time is unknown.
func DateOf(t time.Time) DateValue {
	if t.IsZero() {
		return DateValue{}
	}
	return DateValue{t: t, known: true}
}

// DateFromString parses an ISO-8601 "YYYY-MM-DD" string. Any other
// form is unknown, not an error.
func DateFromString(s string) DateValue {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return DateValue{}
	}
	return DateValue{t: t, known: true}
}

func (d DateValue) Known() bool { return d.known }

// Time returns the underlying value; only meaningful when Known.
func (d DateValue) Time() time.Time { return d.t }

// SameDay reports whether d falls on the same calendar date as t.
// An unknown date is on no day.
func (d DateValue) SameDay(t time.Time) bool {
	if !d.known {
		return false
	}
	y1, m1, day1 := d.t.Date()
	y2, m2, day2 := t.Date()
	return y1 == y2 && m1 == m2 && day1 == day2
}

// String renders the ISO-8601 date, or "" when unknown.
func (d DateValue) String() string {
	if !d.known {
		return ""
	}
	return d.t.Format("2006-01-02")
}
