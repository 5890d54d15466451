package extract

import (
	"unicode"

	"github.com/relomove/leadbot/internal/models"
)

// minScriptLetters is the minimum number of script letters required before
// detection triggers. Button presses, digits and phone numbers stay below
// it and never flip the session language.
const minScriptLetters = 3

// DetectLanguage guesses the language of text from its script. Hebrew
// characters are unambiguous and win outright; otherwise Cyrillic and Latin
// letter counts compete. Returns ("", 0.0) when the input carries fewer
// than three script letters.
func DetectLanguage(text string) (models.Language, float64) {
	var hebrew, cyrillic, latin int
	for _, c := range text {
		switch {
		case unicode.Is(unicode.Hebrew, c):
			hebrew++
		case unicode.Is(unicode.Cyrillic, c):
			cyrillic++
		case c < 128 && unicode.IsLetter(c):
			latin++
		}
	}

	total := hebrew + cyrillic + latin
	if total < minScriptLetters {
		return "", 0.0
	}

	if hebrew > 0 {
		return models.LanguageHebrew, float64(hebrew) / float64(total)
	}
	if cyrillic > latin {
		return models.LanguageRussian, float64(cyrillic) / float64(total)
	}
	if latin > cyrillic {
		return models.LanguageEnglish, float64(latin) / float64(total)
	}
	return "", 0.0
}
