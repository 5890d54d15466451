package extract

import (
	"strings"

	"github.com/relomove/leadbot/internal/models"
)

// LandingGreeting is the signature first line sent by the landing-page
// integration. A message starting with it carries "Label: value" prefill
// lines instead of conversational text.
const LandingGreeting = "Здравствуйте! Хочу заказать перевозку"

// Prefill is the structured data parsed from a landing-page message.
type Prefill struct {
	MoveType string
	AddrFrom string
	AddrTo   string
	DateHint string
	Details  string
}

// HasBothAddresses reports whether the prefill already supplies origin and
// destination, letting the flow offer an address confirmation shortcut.
func (p *Prefill) HasBothAddresses() bool {
	return p.AddrFrom != "" && p.AddrTo != ""
}

// moveTypeAllowlist validates the landing form's move-type field.
var moveTypeAllowlist = map[string]string{
	"квартира":        "apartment",
	"квартиры":        "apartment",
	"apartment":       "apartment",
	"офис":            "office",
	"офиса":           "office",
	"office":          "office",
	"несколько вещей": "few_items",
	"few items":       "few_items",
}

// prefillLabels maps localized "Label" prefixes to Prefill fields.
var prefillLabels = map[string]string{
	"тип переезда": "move_type",
	"move type":    "move_type",
	"откуда":       "addr_from",
	"from":         "addr_from",
	"куда":         "addr_to",
	"to":           "addr_to",
	"дата":         "date",
	"date":         "date",
	"детали":       "details",
	"details":      "details",
	"комментарий":  "details",
}

// ParseLandingPrefill detects the landing greeting as the first line of an
// inbound message and parses subsequent "Label: value" lines into typed,
// individually sanitized fields. Returns (nil, false) for ordinary messages.
func ParseLandingPrefill(text string) (*Prefill, bool) {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	if len(lines) == 0 || !strings.HasPrefix(strings.TrimSpace(lines[0]), LandingGreeting) {
		return nil, false
	}

	p := &Prefill{}
	for _, line := range lines[1:] {
		label, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		value, err := Sanitize(value, models.MaxTextLength)
		if err != nil {
			continue
		}
		switch prefillLabels[strings.ToLower(strings.TrimSpace(label))] {
		case "move_type":
			if canonical, ok := moveTypeAllowlist[strings.ToLower(value)]; ok {
				p.MoveType = canonical
			}
		case "addr_from":
			p.AddrFrom = value
		case "addr_to":
			p.AddrTo = value
		case "date":
			p.DateHint = value
		case "details":
			p.Details = value
		}
	}
	return p, true
}
