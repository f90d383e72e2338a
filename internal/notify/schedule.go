package notify

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// TimeOfDay is a wall-clock time with minute resolution.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// dailyTimeRe accepts exactly "HH:MM", 24-hour. Anything looser
// ("9:00", "09:00:00", surrounding junk) is a format error.
var dailyTimeRe = regexp.MustCompile(`^([01][0-9]|2[0-3]):([0-5][0-9])$`)

// ParseDailyTime parses a strict "HH:MM" 24-hour time-of-day string.
func ParseDailyTime(s string) (TimeOfDay, error) {
	m := dailyTimeRe.FindStringSubmatch(s)
	if m == nil {
		return TimeOfDay{}, &FormatError{Field: "daily_time", Value: s, Want: "HH:MM"}
	}
	h, _ := strconv.Atoi(m[1])
	min, _ := strconv.Atoi(m[2])
	return TimeOfDay{Hour: h, Minute: min}, nil
}

// weekdayKeys is indexed Monday-first, matching numeric day tokens.
var weekdayKeys = [7]string{"mon", "tue", "wed", "thu", "fri", "sat", "sun"}

var dayAliases = map[string]string{
	"mon": "mon", "monday": "mon",
	"tue": "tue", "tuesday": "tue",
	"wed": "wed", "wednesday": "wed",
	"thu": "thu", "thursday": "thu",
	"fri": "fri", "friday": "fri",
	"sat": "sat", "saturday": "sat",
	"sun": "sun", "sunday": "sun",
}

// NormalizeDays reduces weekday tokens to the lowercase three-letter
// keys "mon".."sun". Full names, three-letter abbreviations and the
// integers 0-6 (0 = Monday) are accepted; unrecognized tokens are
// silently dropped.
//
// nil means "every day". An empty slice (or one whose tokens are all
// unrecognized) yields an empty set, i.e. no scheduled day.
func NormalizeDays(tokens []string) map[string]bool {
	if tokens == nil {
		all := make(map[string]bool, len(weekdayKeys))
		for _, k := range weekdayKeys {
			all[k] = true
		}
		return all
	}
	out := make(map[string]bool, len(tokens))
	for _, tok := range tokens {
		tok = strings.ToLower(strings.TrimSpace(tok))
		if tok == "" {
			continue
		}
		if n, err := strconv.Atoi(tok); err == nil {
			if n >= 0 && n <= 6 {
				out[weekdayKeys[n]] = true
			}
			continue
		}
		if key, ok := dayAliases[tok]; ok {
			out[key] = true
		}
	}
	return out
}

func weekdayKey(d time.Weekday) string {
	return strings.ToLower(d.String()[:3])
}

// ShouldSend reports whether a reminder run is due at now.
//
// The gate passes when, in order: today's weekday is in daysOfWeek,
// now has reached the daily wall-clock time, and (unless allowRepeat)
// no send is recorded for today. A malformed dailyTime string is the
// only hard failure; the weekday gate runs first, so an unscheduled
// day never parses the time at all.
func ShouldSend(now time.Time, dailyTime string, lastSent DateValue, daysOfWeek []string, allowRepeat bool) (bool, error) {
	days := NormalizeDays(daysOfWeek)
	if !days[weekdayKey(now.Weekday())] {
		return false, nil
	}
	tod, err := ParseDailyTime(dailyTime)
	if err != nil {
		return false, err
	}
	return ShouldSendAt(now, tod, lastSent, daysOfWeek, allowRepeat), nil
}

// ShouldSendAt is ShouldSend for an already-parsed time-of-day.
func ShouldSendAt(now time.Time, at TimeOfDay, lastSent DateValue, daysOfWeek []string, allowRepeat bool) bool {
	days := NormalizeDays(daysOfWeek)
	if !days[weekdayKey(now.Weekday())] {
		return false
	}
	return windowOpen(now, at, lastSent, allowRepeat)
}

func windowOpen(now time.Time, at TimeOfDay, lastSent DateValue, allowRepeat bool) bool {
	// Target carries now's location: same wall-clock time, no conversion.
	target := time.Date(now.Year(), now.Month(), now.Day(), at.Hour, at.Minute, 0, 0, now.Location())
	if now.Before(target) {
		return false
	}
	if !allowRepeat && lastSent.SameDay(now) {
		return false
	}
	return true
}
