package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/relomove/leadbot/internal/models"
)

var studioKeywords = []string{"студия", "студию", "studio", "סטודיו"}

// roomCountRe matches "N-комнатная", "N комн", "3 rooms", "4 חדרים" style
// phrasing with an explicit room count. комн\p{L}* covers every Cyrillic
// inflection; a trailing \b would never match there because RE2 word
// boundaries are ASCII-only.
var roomCountRe = regexp.MustCompile(`(\d)\s*-?\s*(?:комн\p{L}*|rooms?\b|br\b|חדרים|חד')`)

var bedroomKeywords = []string{"спальня", "спальни", "спальню", "bedroom", "חדר שינה"}
var livingRoomKeywords = []string{"гостиная", "гостиную", "зал", "living room", "סלון"}

// DetectVolumeFromRooms maps room phrasing to a volume category: "studio"
// wins immediately as the smallest tier; an explicit room count maps
// directly; otherwise bedroom and living-room mentions are counted
// additively (kitchens and bathrooms are never counted). Returns false when
// the text carries no room signal.
func DetectVolumeFromRooms(text string) (models.VolumeCategory, bool) {
	t := strings.ToLower(text)

	for _, kw := range studioKeywords {
		if strings.Contains(t, kw) {
			return models.VolumeSmall, true
		}
	}

	if m := roomCountRe.FindStringSubmatch(t); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n >= 1 {
			return categoryForRooms(n), true
		}
	}

	rooms := 0
	for _, kw := range bedroomKeywords {
		rooms += strings.Count(t, kw)
	}
	for _, kw := range livingRoomKeywords {
		rooms += strings.Count(t, kw)
	}
	if rooms == 0 {
		return "", false
	}
	return categoryForRooms(rooms), true
}

func categoryForRooms(n int) models.VolumeCategory {
	switch {
	case n <= 1:
		return models.VolumeSmall
	case n == 2:
		return models.VolumeMedium
	case n == 3:
		return models.VolumeLarge
	default:
		return models.VolumeXL
	}
}
