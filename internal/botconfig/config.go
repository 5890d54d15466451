// Package botconfig holds the declarative conversation scripts: steps,
// translations, choice maps and intent keyword sets per bot type. The
// state machine is generic over this data; swapping a config changes the
// conversation content without touching any transition logic.
package botconfig

import (
	"strings"

	"github.com/relomove/leadbot/internal/extract"
	"github.com/relomove/leadbot/internal/models"
)

// BotConfig is the full script for one bot type. Immutable after
// construction.
type BotConfig struct {
	Type            models.BotType
	InitialStep     models.Step
	FinalStep       models.Step
	Steps           []models.Step
	DefaultLanguage models.Language

	// Translations is keyed by (text key, language). Values may contain
	// {placeholder} markers substituted by Translate.
	Translations map[string]map[models.Language]string

	// Choices maps a choice group to its digit-to-value table.
	Choices map[string]map[string]string

	// Intents holds the per-language keyword sets, merged for matching.
	Intents map[models.Language]extract.IntentPatterns
}

// Translate renders the text for key in lang, substituting {placeholder}
// markers from args. Falls back to the default language, then to the key
// itself so a missing translation is visible instead of silent.
func (c *BotConfig) Translate(key string, lang models.Language, args map[string]string) string {
	byLang, ok := c.Translations[key]
	if !ok {
		return key
	}
	text, ok := byLang[lang]
	if !ok || text == "" {
		text = byLang[c.DefaultLanguage]
	}
	if text == "" {
		return key
	}
	for name, value := range args {
		text = strings.ReplaceAll(text, "{"+name+"}", value)
	}
	return text
}

// Choice resolves a digit within a choice group, returning "" when the
// digit is not declared.
func (c *BotConfig) Choice(group, digit string) string {
	table, ok := c.Choices[group]
	if !ok {
		return ""
	}
	return table[strings.TrimSpace(digit)]
}

// IntentPatterns merges the keyword sets of every language into one table;
// intent matching is language-independent.
func (c *BotConfig) IntentPatterns() extract.IntentPatterns {
	var merged extract.IntentPatterns
	for _, p := range c.Intents {
		merged.Reset = append(merged.Reset, p.Reset...)
		merged.Confirm = append(merged.Confirm, p.Confirm...)
		merged.Decline = append(merged.Decline, p.Decline...)
	}
	return merged
}

// HasStep reports whether s is declared for this bot.
func (c *BotConfig) HasStep(s models.Step) bool {
	for _, declared := range c.Steps {
		if declared == s {
			return true
		}
	}
	return false
}
