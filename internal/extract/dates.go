package extract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/relomove/leadbot/internal/models"
)

// DateErrorReason distinguishes why a date failed to parse or validate.
// Each reason maps to a distinct user-facing message.
type DateErrorReason string

const (
	// DateUnrecognized means the text matched no known date format.
	DateUnrecognized DateErrorReason = "unrecognized"
	// DateInvalid means the format was recognized but the calendar date
	// does not exist (e.g. 31.02).
	DateInvalid DateErrorReason = "invalid"
	// DateTooSoon means the date is before tomorrow.
	DateTooSoon DateErrorReason = "too_soon"
	// DateTooFar means the date is beyond the booking horizon.
	DateTooFar DateErrorReason = "too_far"
)

// DateError carries the failure reason for a date parse.
type DateError struct {
	Reason DateErrorReason
	Input  string
}

func (e *DateError) Error() string {
	return fmt.Sprintf("date parse failed (%s): %q", e.Reason, e.Input)
}

var explicitDateRe = regexp.MustCompile(`^\s*(\d{1,2})[./-](\d{1,2})(?:[./-](\d{2,4}))?\s*$`)

// relativeKeywords maps natural-language day references to day offsets.
var relativeKeywords = map[string]int{
	"сегодня": 0, "today": 0, "היום": 0,
	"завтра": 1, "tomorrow": 1, "מחר": 1,
	"послезавтра": 2, "day after tomorrow": 2, "מחרתיים": 2,
}

// weekdayNames maps localized weekday names to time.Weekday.
var weekdayNames = map[string]time.Weekday{
	"понедельник": time.Monday, "вторник": time.Tuesday, "среда": time.Wednesday,
	"среду": time.Wednesday, "четверг": time.Thursday, "пятница": time.Friday,
	"пятницу": time.Friday, "суббота": time.Saturday, "субботу": time.Saturday,
	"воскресенье": time.Sunday,
	"monday":      time.Monday, "tuesday": time.Tuesday, "wednesday": time.Wednesday,
	"thursday": time.Thursday, "friday": time.Friday, "saturday": time.Saturday,
	"sunday":    time.Sunday,
	"יום ראשון": time.Sunday, "יום שני": time.Monday, "יום שלישי": time.Tuesday,
	"יום רביעי": time.Wednesday, "יום חמישי": time.Thursday, "יום שישי": time.Friday,
	"שבת": time.Saturday,
}

// nextPrefixes mark a weekday reference as "next week's".
var nextPrefixes = []string{"следующий", "следующую", "следующее", "в следующий", "в следующую", "next", "הבא", "הבאה"}

// monthNames maps localized month names (including Russian genitive forms)
// to month numbers.
var monthNames = map[string]time.Month{
	"января": time.January, "январь": time.January, "february": time.February,
	"февраля": time.February, "февраль": time.February, "january": time.January,
	"марта": time.March, "март": time.March, "march": time.March,
	"апреля": time.April, "апрель": time.April, "april": time.April,
	"мая": time.May, "май": time.May, "may": time.May,
	"июня": time.June, "июнь": time.June, "june": time.June,
	"июля": time.July, "июль": time.July, "july": time.July,
	"августа": time.August, "август": time.August, "august": time.August,
	"сентября": time.September, "сентябрь": time.September, "september": time.September,
	"октября": time.October, "октябрь": time.October, "october": time.October,
	"ноября": time.November, "ноябрь": time.November, "november": time.November,
	"декабря": time.December, "декабрь": time.December, "december": time.December,
	"ינואר": time.January, "פברואר": time.February, "מרץ": time.March,
	"אפריל": time.April, "מאי": time.May, "יוני": time.June,
	"יולי": time.July, "אוגוסט": time.August, "ספטמבר": time.September,
	"אוקטובר": time.October, "נובמבר": time.November, "דצמבר": time.December,
}

var dayMonthNameRe = regexp.MustCompile(`^\s*(\d{1,2})\s+(\pL+(?:\s+\pL+)?)\s*$`)

// ParseDate parses an explicit (DD.MM, DD.MM.YYYY with ./- as separators)
// or natural-language date and validates it against the booking window:
// at least tomorrow, at most now+60 days. now supplies "today" for
// determinism. All failures return a *DateError with a distinct reason.
func ParseDate(text string, now time.Time) (time.Time, error) {
	t := strings.ToLower(strings.TrimSpace(text))
	if t == "" {
		return time.Time{}, &DateError{Reason: DateUnrecognized, Input: text}
	}
	today := truncateToDay(now)

	if m := explicitDateRe.FindStringSubmatch(t); m != nil {
		return parseExplicit(m, today, text)
	}

	if offset, ok := matchRelative(t); ok {
		return validateWindow(today.AddDate(0, 0, offset), today, text)
	}

	if d, ok := matchWeekday(t, today); ok {
		return validateWindow(d, today, text)
	}

	if d, err := matchDayMonthName(t, today, text); err == nil {
		return validateWindow(d, today, text)
	} else if de, isDate := err.(*DateError); isDate && de.Reason != DateUnrecognized {
		return time.Time{}, err
	}

	return time.Time{}, &DateError{Reason: DateUnrecognized, Input: text}
}

func parseExplicit(m []string, today time.Time, input string) (time.Time, error) {
	day, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	year := today.Year()
	explicitYear := false
	if m[3] != "" {
		y, _ := strconv.Atoi(m[3])
		if y < 100 {
			y += 2000
		}
		year = y
		explicitYear = true
	}

	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, &DateError{Reason: DateInvalid, Input: input}
	}
	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, today.Location())
	if d.Day() != day || d.Month() != time.Month(month) {
		// time.Date normalized an impossible calendar date like 31.02.
		return time.Time{}, &DateError{Reason: DateInvalid, Input: input}
	}

	// A year-less date that already passed rolls to next year.
	if !explicitYear && d.Before(today) {
		d = d.AddDate(1, 0, 0)
	}
	return validateWindow(d, today, input)
}

func matchRelative(t string) (int, bool) {
	for kw, offset := range relativeKeywords {
		if t == kw {
			return offset, true
		}
	}
	// "day after tomorrow" style phrases may carry extra words.
	if strings.Contains(t, "послезавтра") || strings.Contains(t, "מחרתיים") {
		return 2, true
	}
	if strings.Contains(t, "day after") {
		return 2, true
	}
	return 0, false
}

func matchWeekday(t string, today time.Time) (time.Time, bool) {
	isNext := false
	for _, prefix := range nextPrefixes {
		if strings.HasPrefix(t, prefix+" ") {
			isNext = true
			t = strings.TrimSpace(strings.TrimPrefix(t, prefix))
			break
		}
	}
	// Russian "в пятницу" style.
	t = strings.TrimPrefix(t, "в ")
	t = strings.TrimSpace(t)

	wd, ok := weekdayNames[t]
	if !ok {
		return time.Time{}, false
	}
	days := (int(wd) - int(today.Weekday()) + 7) % 7
	if days == 0 {
		days = 7
	}
	if isNext {
		days += 7
	}
	return today.AddDate(0, 0, days), true
}

func matchDayMonthName(t string, today time.Time, input string) (time.Time, error) {
	m := dayMonthNameRe.FindStringSubmatch(t)
	if m == nil {
		return time.Time{}, &DateError{Reason: DateUnrecognized, Input: input}
	}
	month, ok := monthNames[strings.TrimSpace(m[2])]
	if !ok {
		return time.Time{}, &DateError{Reason: DateUnrecognized, Input: input}
	}
	day, _ := strconv.Atoi(m[1])
	if day < 1 || day > 31 {
		return time.Time{}, &DateError{Reason: DateInvalid, Input: input}
	}
	d := time.Date(today.Year(), month, day, 0, 0, 0, 0, today.Location())
	if d.Day() != day {
		return time.Time{}, &DateError{Reason: DateInvalid, Input: input}
	}
	if d.Before(today) {
		d = d.AddDate(1, 0, 0)
	}
	return d, nil
}

func validateWindow(d, today time.Time, input string) (time.Time, error) {
	tomorrow := today.AddDate(0, 0, 1)
	if d.Before(tomorrow) {
		return time.Time{}, &DateError{Reason: DateTooSoon, Input: input}
	}
	horizon := today.AddDate(0, 0, models.MaxBookingHorizonDays)
	if d.After(horizon) {
		return time.Time{}, &DateError{Reason: DateTooFar, Input: input}
	}
	return d, nil
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

var exactTimeRe = regexp.MustCompile(`^\s*(\d{1,2})[:.\-](\d{2})\s*$`)

// ParseExactTime parses a clock time with :, . or - as separator and
// returns it normalized to HH:MM.
func ParseExactTime(text string) (string, error) {
	m := exactTimeRe.FindStringSubmatch(text)
	if m == nil {
		return "", fmt.Errorf("unrecognized time format: %q", text)
	}
	hour, _ := strconv.Atoi(m[1])
	minute, _ := strconv.Atoi(m[2])
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return "", fmt.Errorf("time out of range: %q", text)
	}
	return fmt.Sprintf("%02d:%02d", hour, minute), nil
}
