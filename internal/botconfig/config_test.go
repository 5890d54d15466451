package botconfig

import (
	"strings"
	"testing"

	"github.com/relomove/leadbot/internal/models"
)

func TestTranslatePlaceholders(t *testing.T) {
	cfg := MovingBotConfig()

	text := cfg.Translate("estimate_confirm", models.LanguageEnglish, map[string]string{
		"min":      "500",
		"max":      "800",
		"currency": "ILS",
	})
	for _, want := range []string{"500", "800", "ILS"} {
		if !strings.Contains(text, want) {
			t.Errorf("estimate_confirm = %q, missing %q", text, want)
		}
	}
	if strings.Contains(text, "{") {
		t.Errorf("estimate_confirm = %q, has unsubstituted placeholder", text)
	}
}

func TestTranslateFallbacks(t *testing.T) {
	cfg := MovingBotConfig()

	// Unknown language falls back to the default language.
	fallback := cfg.Translate("welcome", models.Language("fr"), nil)
	ru := cfg.Translate("welcome", models.LanguageRussian, nil)
	if fallback != ru {
		t.Errorf("fallback = %q, want default-language text %q", fallback, ru)
	}

	// Unknown key surfaces as the key itself.
	if got := cfg.Translate("no_such_key", models.LanguageRussian, nil); got != "no_such_key" {
		t.Errorf("missing key = %q, want the key echoed back", got)
	}
}

func TestTranslationsCoverAllLanguages(t *testing.T) {
	cfg := MovingBotConfig()
	languages := []models.Language{
		models.LanguageRussian, models.LanguageEnglish, models.LanguageHebrew,
	}
	for key, byLang := range cfg.Translations {
		for _, lang := range languages {
			if byLang[lang] == "" {
				t.Errorf("translation %q has no %s text", key, lang)
			}
		}
	}
}

func TestChoiceLookup(t *testing.T) {
	cfg := MovingBotConfig()

	if got := cfg.Choice(ChoiceVolume, "2"); got != "medium" {
		t.Errorf("volume choice 2 = %q, want medium", got)
	}
	if got := cfg.Choice(ChoiceVolume, " 2 "); got != "medium" {
		t.Errorf("volume choice with spaces = %q, want medium", got)
	}
	if got := cfg.Choice(ChoiceVolume, "9"); got != "" {
		t.Errorf("undeclared digit = %q, want empty", got)
	}
	if got := cfg.Choice("no_such_group", "1"); got != "" {
		t.Errorf("undeclared group = %q, want empty", got)
	}
	if got := cfg.Choice(ChoiceExtras, "4"); got != ExtrasNone {
		t.Errorf("extras choice 4 = %q, want %q", got, ExtrasNone)
	}
}

func TestIntentPatternsMerged(t *testing.T) {
	cfg := MovingBotConfig()
	merged := cfg.IntentPatterns()

	wantReset := []string{"сброс", "reset", "מחדש"}
	for _, phrase := range wantReset {
		found := false
		for _, r := range merged.Reset {
			if r == phrase {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("merged Reset missing %q (got %v)", phrase, merged.Reset)
		}
	}
	if len(merged.Confirm) == 0 || len(merged.Decline) == 0 {
		t.Errorf("merged patterns incomplete: confirm=%v decline=%v",
			merged.Confirm, merged.Decline)
	}
}

func TestMovingStepsDeclared(t *testing.T) {
	cfg := MovingBotConfig()

	if cfg.Type != models.BotTypeMoving {
		t.Errorf("Type = %q, want %q", cfg.Type, models.BotTypeMoving)
	}
	if cfg.InitialStep != models.StepWelcome {
		t.Errorf("InitialStep = %q, want %q", cfg.InitialStep, models.StepWelcome)
	}
	for _, s := range []models.Step{
		models.StepCargo, models.StepTimeSlot, models.StepEstimate, models.StepDone,
	} {
		if !cfg.HasStep(s) {
			t.Errorf("HasStep(%q) = false, want true", s)
		}
	}
	if cfg.HasStep(models.Step("launch_countdown")) {
		t.Error("HasStep accepted an undeclared step")
	}
}
