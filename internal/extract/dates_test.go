package extract

import (
	"errors"
	"testing"
	"time"
)

// fixedNow is a Monday in mid-March, so weekday and rollover cases are
// deterministic.
var fixedNow = time.Date(2025, 3, 10, 14, 30, 0, 0, time.UTC)

func assertDate(t *testing.T, input string, want string) {
	t.Helper()
	got, err := ParseDate(input, fixedNow)
	if err != nil {
		t.Fatalf("ParseDate(%q): unexpected error: %v", input, err)
	}
	if got.Format("2006-01-02") != want {
		t.Errorf("ParseDate(%q) = %s, want %s", input, got.Format("2006-01-02"), want)
	}
}

func assertDateError(t *testing.T, input string, reason DateErrorReason) {
	t.Helper()
	_, err := ParseDate(input, fixedNow)
	if err == nil {
		t.Fatalf("ParseDate(%q): expected error with reason %s, got none", input, reason)
	}
	var de *DateError
	if !errors.As(err, &de) {
		t.Fatalf("ParseDate(%q): expected *DateError, got %T", input, err)
	}
	if de.Reason != reason {
		t.Errorf("ParseDate(%q): reason = %s, want %s", input, de.Reason, reason)
	}
}

func TestParseDateExplicit(t *testing.T) {
	assertDate(t, "25.03", "2025-03-25")
	assertDate(t, "25/03", "2025-03-25")
	assertDate(t, "25-03", "2025-03-25")
	assertDate(t, "25.03.2025", "2025-03-25")
}

func TestParseDateYearlessRollsForward(t *testing.T) {
	// 05.01 already passed this year, so it means next January. That lands
	// past the booking horizon rather than in the past.
	assertDateError(t, "05.01", DateTooFar)
	// 01.04 is still ahead this year.
	assertDate(t, "01.04", "2025-04-01")
}

func TestParseDateBoundaries(t *testing.T) {
	// Tomorrow is the earliest bookable day.
	assertDate(t, "11.03", "2025-03-11")
	assertDateError(t, "10.03", DateTooSoon)
	// The horizon is 60 days out.
	assertDate(t, "09.05", "2025-05-09")
	assertDateError(t, "10.05.2025", DateTooFar)
}

func TestParseDateImpossible(t *testing.T) {
	assertDateError(t, "31.02", DateInvalid)
	assertDateError(t, "32.01", DateInvalid)
	assertDateError(t, "15.13", DateInvalid)
}

func TestParseDateUnrecognized(t *testing.T) {
	assertDateError(t, "soonish", DateUnrecognized)
	assertDateError(t, "", DateUnrecognized)
}

func TestParseDateRelativeKeywords(t *testing.T) {
	assertDate(t, "завтра", "2025-03-11")
	assertDate(t, "послезавтра", "2025-03-12")
	assertDate(t, "tomorrow", "2025-03-11")
	assertDate(t, "מחר", "2025-03-11")
}

func TestParseDateWeekdays(t *testing.T) {
	// fixedNow is a Monday.
	assertDate(t, "в пятницу", "2025-03-14")
	assertDate(t, "friday", "2025-03-14")
	// A weekday equal to today means next week.
	assertDate(t, "monday", "2025-03-17")
	assertDate(t, "next friday", "2025-03-21")
}

func TestParseDateDayMonthName(t *testing.T) {
	assertDate(t, "25 марта", "2025-03-25")
	assertDate(t, "25 march", "2025-03-25")
	// A named date already behind us rolls to next year, then fails the
	// horizon check.
	assertDateError(t, "5 января", DateTooFar)
}

func TestParseExactTime(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{"09:30", "09:30"},
		{"9:30", "09:30"},
		{"9.30", "09:30"},
		{"18-00", "18:00"},
	}
	for _, tc := range cases {
		got, err := ParseExactTime(tc.input)
		if err != nil {
			t.Fatalf("ParseExactTime(%q): unexpected error: %v", tc.input, err)
		}
		if got != tc.want {
			t.Errorf("ParseExactTime(%q) = %s, want %s", tc.input, got, tc.want)
		}
	}
	for _, bad := range []string{"25:00", "12:75", "morning", ""} {
		if _, err := ParseExactTime(bad); err == nil {
			t.Errorf("ParseExactTime(%q): expected error", bad)
		}
	}
}
