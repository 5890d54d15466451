package extract

import "strings"

// Intent is a cross-cutting conversational intent detected before any
// step-specific logic runs.
type Intent string

const (
	IntentNone    Intent = ""
	IntentReset   Intent = "reset"
	IntentConfirm Intent = "confirm"
	IntentDecline Intent = "decline"
)

// IntentPatterns holds the per-bot keyword sets, one entry per language
// variant. Matching is exact on the normalized input except for reset
// commands, which also match as a prefix ("/start foo").
type IntentPatterns struct {
	Reset   []string
	Confirm []string
	Decline []string
}

// DetectIntent matches the normalized input against the configured keyword
// sets. Reset wins over confirm/decline when several match.
func DetectIntent(text string, patterns IntentPatterns) Intent {
	t := normalizeIntentInput(text)
	if t == "" {
		return IntentNone
	}

	for _, kw := range patterns.Reset {
		kw = strings.ToLower(kw)
		if t == kw || (strings.HasPrefix(kw, "/") && strings.HasPrefix(t, kw)) {
			return IntentReset
		}
	}
	for _, kw := range patterns.Confirm {
		if t == strings.ToLower(kw) {
			return IntentConfirm
		}
	}
	for _, kw := range patterns.Decline {
		if t == strings.ToLower(kw) {
			return IntentDecline
		}
	}
	return IntentNone
}

func normalizeIntentInput(text string) string {
	t := strings.ToLower(strings.TrimSpace(text))
	t = strings.TrimRight(t, ".!?")
	return strings.TrimSpace(t)
}
