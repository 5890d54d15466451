// Package models defines the core data structures for leadbot.
//
// It includes the normalized inbound message produced by transport adapters,
// the session and lead structures shared across modules, and the enums the
// conversation engine dispatches on.
package models

import (
	"errors"
	"time"
)

// Provider identifies the messaging transport a message arrived through.
type Provider string

const (
	// ProviderTwilio is the Twilio WhatsApp Business API.
	ProviderTwilio Provider = "twilio"
	// ProviderMeta is the Meta WhatsApp Cloud API.
	ProviderMeta Provider = "meta"
	// ProviderTelegram is the Telegram Bot API.
	ProviderTelegram Provider = "telegram"
)

// BotType selects the conversation script registered for a tenant.
type BotType string

const (
	// BotTypeMoving is the moving/relocation lead-intake script.
	BotTypeMoving BotType = "moving"
)

// Language is an ISO 639-1 code for one of the supported reply languages.
type Language string

const (
	LanguageRussian Language = "ru"
	LanguageEnglish Language = "en"
	LanguageHebrew  Language = "he"
)

// IsValidLanguage reports whether lang is one of the supported languages.
func IsValidLanguage(lang Language) bool {
	switch lang {
	case LanguageRussian, LanguageEnglish, LanguageHebrew:
		return true
	default:
		return false
	}
}

// VolumeCategory is a coarse move-size bucket used for a flat surcharge.
type VolumeCategory string

const (
	VolumeSmall  VolumeCategory = "small"
	VolumeMedium VolumeCategory = "medium"
	VolumeLarge  VolumeCategory = "large"
	VolumeXL     VolumeCategory = "xl"
)

// Validation constants shared across modules.
const (
	// MaxTextLength caps sanitized free-text input stored on a lead.
	MaxTextLength = 1000
	// MaxPickupCount is the maximum number of pickup addresses per move.
	MaxPickupCount = 3
	// MaxBookingHorizonDays is how far ahead a move may be scheduled.
	MaxBookingHorizonDays = 60
)

// Error variables for better error handling and testability.
var (
	ErrEmptyTenant    = errors.New("tenant_id cannot be empty")
	ErrEmptyChat      = errors.New("chat_id cannot be empty")
	ErrUnknownBotType = errors.New("unknown bot type")
	ErrInputRejected  = errors.New("input rejected by sanitizer")
	ErrNoSession      = errors.New("no session for chat")
)

// Media describes one media attachment on an inbound message.
type Media struct {
	ContentType     string `json:"content_type"`
	SizeBytes       int64  `json:"size_bytes,omitempty"`
	ProviderMediaID string `json:"provider_media_id,omitempty"`
}

// Location is a GPS pin attached to an inbound message.
type Location struct {
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	Name    string  `json:"name,omitempty"`
	Address string  `json:"address,omitempty"`
}

// InboundMessage is the provider-agnostic message produced by the transport
// adapters and consumed by the engine. Text may be empty on a media-only
// message; Location is set only for GPS pins.
type InboundMessage struct {
	TenantID   string    `json:"tenant_id"`
	Provider   Provider  `json:"provider"`
	ChatID     string    `json:"chat_id"`
	MessageID  string    `json:"message_id"`
	Text       string    `json:"text,omitempty"`
	Media      []Media   `json:"media,omitempty"`
	Location   *Location `json:"location,omitempty"`
	SenderName string    `json:"sender_name,omitempty"`
	ReceivedAt time.Time `json:"received_at"`
}

// Validate checks the invariants the engine assumes about an inbound message.
func (m *InboundMessage) Validate() error {
	if m.TenantID == "" {
		return ErrEmptyTenant
	}
	if m.ChatID == "" {
		return ErrEmptyChat
	}
	return nil
}

// APIStatus represents the status of an API response.
type APIStatus string

const (
	// APIStatusOK indicates a request completed successfully.
	APIStatusOK APIStatus = "ok"
	// APIStatusError indicates a request failed with an error.
	APIStatusError APIStatus = "error"
	// APIStatusIgnored indicates a webhook delivery was accepted but produced no reply.
	APIStatusIgnored APIStatus = "ignored"
)

// APIResponse is the standard JSON envelope returned by webhook endpoints.
type APIResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Result  interface{} `json:"result,omitempty"`
}

// Success creates a successful API response with optional result data.
func Success(result interface{}) APIResponse {
	return APIResponse{Status: string(APIStatusOK), Result: result}
}

// Error creates an error API response with a message.
func Error(message string) APIResponse {
	return APIResponse{Status: string(APIStatusError), Message: message}
}

// Ignored creates an ignored API response with a reason.
func Ignored(message string) APIResponse {
	return APIResponse{Status: string(APIStatusIgnored), Message: message}
}
