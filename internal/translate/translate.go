// Package translate renders lead summaries into the operator's language
// through the OpenAI chat API. The translator is optional; callers fall
// back to the untranslated text when it is absent or failing.
package translate

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/relomove/leadbot/internal/models"
)

var languageNames = map[models.Language]string{
	models.LanguageRussian: "Russian",
	models.LanguageEnglish: "English",
	models.LanguageHebrew:  "Hebrew",
}

// Translator translates free text between the supported languages.
type Translator struct {
	client openai.Client
	model  string
}

// TranslatorOption configures a Translator.
type TranslatorOption func(*translatorConfig)

type translatorConfig struct {
	apiKey string
	model  string
}

// WithAPIKey sets the OpenAI API key.
func WithAPIKey(key string) TranslatorOption {
	return func(c *translatorConfig) { c.apiKey = key }
}

// WithModel overrides the chat model.
func WithModel(model string) TranslatorOption {
	return func(c *translatorConfig) { c.model = model }
}

// NewTranslator builds the client, falling back to the OPENAI_API_KEY
// environment variable.
func NewTranslator(opts ...TranslatorOption) (*Translator, error) {
	cfg := translatorConfig{model: openai.ChatModelGPT4oMini}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.apiKey == "" {
		cfg.apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.apiKey == "" {
		return nil, fmt.Errorf("openai API key must be provided")
	}
	return &Translator{
		client: openai.NewClient(option.WithAPIKey(cfg.apiKey)),
		model:  cfg.model,
	}, nil
}

// Translate renders text into the target language, preserving numbers,
// addresses and line structure. Returns the input unchanged when the
// target language is unknown.
func (t *Translator) Translate(ctx context.Context, text string, target models.Language) (string, error) {
	langName, ok := languageNames[target]
	if !ok {
		return text, nil
	}
	system := "You translate customer move requests for a moving company dispatcher. " +
		"Translate the user text into " + langName + ". Keep numbers, addresses, dates " +
		"and line breaks exactly as they are. Reply with the translation only."

	resp, err := t.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: t.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(text),
		},
	})
	if err != nil {
		slog.Error("Translator.Translate: completion failed", "target", target, "error", err)
		return "", fmt.Errorf("failed to translate text: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("translation returned no choices")
	}
	out := strings.TrimSpace(resp.Choices[0].Message.Content)
	if out == "" {
		return "", fmt.Errorf("translation returned empty text")
	}
	return out, nil
}
