package notify

import (
	"errors"
	"testing"
	"time"
)

// 2024-01-01 is a Monday.
var monday9 = time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

func TestParseDailyTime(t *testing.T) {
	t.Parallel()
	tests := []struct {
		raw     string
		hour    int
		minute  int
		wantErr bool
	}{
		{raw: "09:00", hour: 9},
		{raw: "00:00"},
		{raw: "23:59", hour: 23, minute: 59},
		{raw: "9:00", wantErr: true},
		{raw: "24:00", wantErr: true},
		{raw: "09:60", wantErr: true},
		{raw: "09:00:00", wantErr: true},
		{raw: " 09:00", wantErr: true},
		{raw: "", wantErr: true},
		{raw: "morning", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseDailyTime(tt.raw)
		if tt.wantErr {
			if err == nil {
				t.Fatalf("ParseDailyTime(%q): expected error", tt.raw)
			}
			var fe *FormatError
			if !errors.As(err, &fe) {
				t.Fatalf("ParseDailyTime(%q): error %v is not a FormatError", tt.raw, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParseDailyTime(%q) error: %v", tt.raw, err)
		}
		if got.Hour != tt.hour || got.Minute != tt.minute {
			t.Fatalf("ParseDailyTime(%q) = %d:%d, want %d:%d", tt.raw, got.Hour, got.Minute, tt.hour, tt.minute)
		}
	}
}

func TestNormalizeDays(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		tokens []string
		want   []string
	}{
		{name: "nil means every day", tokens: nil, want: []string{"mon", "tue", "wed", "thu", "fri", "sat", "sun"}},
		{name: "empty means none", tokens: []string{}, want: nil},
		{name: "abbreviations", tokens: []string{"Mon", "TUE"}, want: []string{"mon", "tue"}},
		{name: "full names", tokens: []string{"monday", "Sunday"}, want: []string{"mon", "sun"}},
		{name: "integers monday first", tokens: []string{"0", "6"}, want: []string{"mon", "sun"}},
		{name: "unknown dropped", tokens: []string{"mon", "noday", "7", "-1"}, want: []string{"mon"}},
		{name: "all unknown means none", tokens: []string{"blursday"}, want: nil},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := NormalizeDays(tt.tokens)
			if len(got) != len(tt.want) {
				t.Fatalf("NormalizeDays(%v) = %v, want keys %v", tt.tokens, got, tt.want)
			}
			for _, k := range tt.want {
				if !got[k] {
					t.Fatalf("NormalizeDays(%v) missing %q", tt.tokens, k)
				}
			}
		})
	}
}

func TestShouldSend(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name        string
		now         time.Time
		dailyTime   string
		lastSent    DateValue
		days        []string
		allowRepeat bool
		want        bool
	}{
		{name: "due with no prior send", now: monday9, dailyTime: "09:00", want: true},
		{name: "before window", now: monday9.Add(-time.Minute), dailyTime: "09:00", want: false},
		{name: "after window", now: monday9.Add(5 * time.Hour), dailyTime: "09:00", want: true},
		{name: "already sent today", now: monday9, dailyTime: "09:00", lastSent: DateFromString("2024-01-01"), want: false},
		{name: "sent yesterday", now: monday9, dailyTime: "09:00", lastSent: DateFromString("2023-12-31"), want: true},
		{name: "repeat override", now: monday9, dailyTime: "09:00", lastSent: DateFromString("2024-01-01"), allowRepeat: true, want: true},
		{name: "unparseable last sent is absent", now: monday9, dailyTime: "09:00", lastSent: DateFromString("today"), want: true},
		{name: "scheduled weekday", now: monday9, dailyTime: "09:00", days: []string{"mon", "tue"}, want: true},
		{name: "unscheduled weekday", now: monday9, dailyTime: "09:00", days: []string{"tue", "wed"}, want: false},
		{name: "no scheduled days", now: monday9, dailyTime: "09:00", days: []string{}, want: false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ShouldSend(tt.now, tt.dailyTime, tt.lastSent, tt.days, tt.allowRepeat)
			if err != nil {
				t.Fatalf("ShouldSend error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("ShouldSend = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestShouldSendAt(t *testing.T) {
	t.Parallel()
	nine := TimeOfDay{Hour: 9}
	tests := []struct {
		name        string
		now         time.Time
		lastSent    DateValue
		days        []string
		allowRepeat bool
		want        bool
	}{
		{name: "due", now: monday9, want: true},
		{name: "before window", now: monday9.Add(-time.Minute), want: false},
		{name: "already sent today", now: monday9, lastSent: DateFromString("2024-01-01"), want: false},
		{name: "repeat override", now: monday9, lastSent: DateFromString("2024-01-01"), allowRepeat: true, want: true},
		{name: "unscheduled weekday", now: monday9, days: []string{"sun"}, want: false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := ShouldSendAt(tt.now, nine, tt.lastSent, tt.days, tt.allowRepeat)
			if got != tt.want {
				t.Fatalf("ShouldSendAt = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestShouldSendBadDailyTime(t *testing.T) {
	t.Parallel()
	_, err := ShouldSend(monday9, "9am", NoDate, nil, false)
	if err == nil {
		t.Fatal("expected error for malformed daily time")
	}
	var fe *FormatError
	if !errors.As(err, &fe) {
		t.Fatalf("error %v is not a FormatError", err)
	}
}

func TestShouldSendWeekdayGateBeforeTimeParse(t *testing.T) {
	t.Parallel()
	// An unscheduled day short-circuits before the daily time is parsed.
	got, err := ShouldSend(monday9, "bad", NoDate, []string{"tue"}, false)
	if err != nil {
		t.Fatalf("unexpected error on unscheduled day: %v", err)
	}
	if got {
		t.Fatal("unscheduled day must not be due")
	}
}

func TestShouldSendTimezoneWallClock(t *testing.T) {
	t.Parallel()
	loc := time.FixedZone("UTC+8", 8*60*60)
	now := time.Date(2024, 1, 1, 9, 0, 0, 0, loc)
	got, err := ShouldSend(now, "09:00", NoDate, nil, false)
	if err != nil {
		t.Fatalf("ShouldSend error: %v", err)
	}
	if !got {
		t.Fatal("09:00 wall clock in now's zone should be due at 09:00 local")
	}

	got, err = ShouldSend(now, "09:01", NoDate, nil, false)
	if err != nil {
		t.Fatalf("ShouldSend error: %v", err)
	}
	if got {
		t.Fatal("09:01 wall clock in now's zone should not be due at 09:00 local")
	}
}

func TestDateValue(t *testing.T) {
	t.Parallel()
	if NoDate.Known() {
		t.Fatal("zero DateValue must be unknown")
	}
	if NoDate.SameDay(monday9) {
		t.Fatal("unknown date is on no day")
	}
	if DateOf(time.Time{}).Known() {
		t.Fatal("zero time must normalize to unknown")
	}
	d := DateOf(time.Date(2024, 1, 1, 23, 30, 0, 0, time.UTC))
	if !d.SameDay(monday9) {
		t.Fatal("datetime on the same date must match")
	}
	if got := DateFromString(" 2024-01-01 "); !got.SameDay(monday9) {
		t.Fatal("ISO string with surrounding space must parse")
	}
	if DateFromString("01/01/2024").Known() {
		t.Fatal("non-ISO string must normalize to unknown")
	}
	if got := d.String(); got != "2024-01-01" {
		t.Fatalf("String() = %q", got)
	}
}
