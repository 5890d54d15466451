package extract

import (
	"regexp"
	"strconv"
	"strings"
)

// FloorInfo is the parsed floor number and elevator availability for one
// address. The zero value is not meaningful; use DefaultFloorInfo.
type FloorInfo struct {
	Floor       int
	HasElevator bool
}

// DefaultFloorInfo is the deliberately optimistic fallback when nothing is
// detected: ground floor with an elevator, which incurs no surcharge.
func DefaultFloorInfo() FloorInfo {
	return FloorInfo{Floor: 1, HasElevator: true}
}

var privateHouseKeywords = []string{
	"частный дом", "свой дом", "частном доме",
	"private house", "own house",
	"בית פרטי",
}

var noElevatorKeywords = []string{
	"без лифта", "нет лифта", "лифта нет", "не работает лифт", "лифт не работает",
	"no elevator", "without elevator", "no lift", "without lift",
	"אין מעלית", "בלי מעלית",
}

var hasElevatorKeywords = []string{
	"с лифтом", "есть лифт", "лифт есть", "лифт работает",
	"with elevator", "has elevator", "elevator", "with lift",
	"יש מעלית", "מעלית",
}

var (
	// "эт" is fenced with explicit end-of-token checks: RE2's \b is
	// ASCII-only and never matches after a Cyrillic letter.
	floorBeforeRe = regexp.MustCompile(`(\d{1,2})\s*-?\s*(?:(?:й|st|nd|rd|th)\s*)?(?:этаж|эт\.?(?:\s|$)|floor|fl\b|קומה)`)
	floorAfterRe  = regexp.MustCompile(`(?:этаж|floor|קומה)\s*[:№#]?\s*(\d{1,2})`)
	bareNumberRe  = regexp.MustCompile(`^\s*(\d{1,2})\s*$`)
)

// ParseFloorInfo detects an explicit floor number and elevator-presence
// phrases in any of the supported languages. "Private house" phrasing
// short-circuits to ground floor with elevator, so no surcharge applies.
func ParseFloorInfo(text string) FloorInfo {
	t := strings.ToLower(strings.TrimSpace(text))
	info := DefaultFloorInfo()

	for _, kw := range privateHouseKeywords {
		if strings.Contains(t, kw) {
			return info
		}
	}

	if m := bareNumberRe.FindStringSubmatch(t); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			info.Floor = n
		}
	} else if m := floorBeforeRe.FindStringSubmatch(t); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			info.Floor = n
		}
	} else if m := floorAfterRe.FindStringSubmatch(t); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			info.Floor = n
		}
	}

	// Negative phrases are checked first: "нет лифта" contains "лифт",
	// which would otherwise match the positive list.
	for _, kw := range noElevatorKeywords {
		if strings.Contains(t, kw) {
			info.HasElevator = false
			return info
		}
	}
	for _, kw := range hasElevatorKeywords {
		if strings.Contains(t, kw) {
			info.HasElevator = true
			return info
		}
	}
	return info
}
