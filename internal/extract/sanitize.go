// Package extract provides the pure text-processing utilities the
// conversation state machine delegates to: sanitization, language and
// intent detection, date/time/floor parsing, item extraction and volume
// detection. Every function is deterministic and side-effect free.
package extract

import (
	"regexp"
	"strings"

	"github.com/relomove/leadbot/internal/models"
)

var (
	htmlTagRe   = regexp.MustCompile(`<[^>]*>`)
	urlRe       = regexp.MustCompile(`(?i)\b(?:https?://|www\.)\S+`)
	uriSchemeRe = regexp.MustCompile(`(?i)\b(?:javascript|data|vbscript):\S*`)
	multiSpace  = regexp.MustCompile(`[ \t]{2,}`)
)

// Sanitize strips HTML tags, URLs, script URI schemes and control characters
// from user input, collapses repeated spaces and truncates to maxLength
// runes. When the entire input consisted of stripped content it returns
// models.ErrInputRejected so the caller can reject the message outright.
func Sanitize(s string, maxLength int) (string, error) {
	original := strings.TrimSpace(s)
	if original == "" {
		return "", models.ErrInputRejected
	}

	s = htmlTagRe.ReplaceAllString(s, " ")
	s = urlRe.ReplaceAllString(s, " ")
	s = uriSchemeRe.ReplaceAllString(s, " ")

	var b strings.Builder
	b.Grow(len(s))
	for _, c := range s {
		if c < 0x20 && c != '\n' {
			continue
		}
		if c == 0x7f {
			continue
		}
		b.WriteRune(c)
	}
	s = multiSpace.ReplaceAllString(b.String(), " ")
	s = strings.TrimSpace(s)

	if s == "" {
		return "", models.ErrInputRejected
	}

	runes := []rune(s)
	if maxLength > 0 && len(runes) > maxLength {
		s = string(runes[:maxLength])
	}
	return s, nil
}

// lowInfoTokens are inputs treated as too short regardless of length.
var lowInfoTokens = map[string]bool{
	"ok": true, "ок": true, "да": true, "да.": true, "нет": true,
	"...": true, "..": true, ".": true, "?": true, "-": true,
	":)": true, ":(": true, "+": true,
}

// IsTooShort reports whether text fails the shared minimum-information
// heuristic used by free-text steps.
func IsTooShort(text string, minLen int) bool {
	t := strings.ToLower(strings.TrimSpace(text))
	if lowInfoTokens[t] {
		return true
	}
	return len([]rune(t)) < minLen
}
