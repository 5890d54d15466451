package messaging

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/relomove/leadbot/internal/models"
)

// TwilioOpts holds configuration for the Twilio WhatsApp client.
type TwilioOpts struct {
	AccountSID string
	AuthToken  string
	FromWhats  string
}

// TwilioOption configures the Twilio client.
type TwilioOption func(*TwilioOpts)

// WithAccountSID sets the Twilio account SID.
func WithAccountSID(sid string) TwilioOption {
	return func(o *TwilioOpts) { o.AccountSID = sid }
}

// WithAuthToken sets the Twilio auth token.
func WithAuthToken(token string) TwilioOption {
	return func(o *TwilioOpts) { o.AuthToken = token }
}

// WithFromWhats sets the sender number in "whatsapp:+1234567890" format.
func WithFromWhats(from string) TwilioOption {
	return func(o *TwilioOpts) { o.FromWhats = from }
}

// TwilioSender sends WhatsApp texts through the Twilio REST API.
type TwilioSender struct {
	client    *twilio.RestClient
	fromWhats string
}

// NewTwilioSender builds the client, falling back to TWILIO_* environment
// variables for options not provided explicitly.
func NewTwilioSender(opts ...TwilioOption) (*TwilioSender, error) {
	var cfg TwilioOpts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.AccountSID == "" {
		cfg.AccountSID = os.Getenv("TWILIO_ACCOUNT_SID")
	}
	if cfg.AuthToken == "" {
		cfg.AuthToken = os.Getenv("TWILIO_AUTH_TOKEN")
	}
	if cfg.FromWhats == "" {
		cfg.FromWhats = os.Getenv("TWILIO_FROM_NUMBER")
	}
	if cfg.AccountSID == "" || cfg.AuthToken == "" {
		return nil, fmt.Errorf("twilio account SID and auth token must be provided")
	}
	if cfg.FromWhats == "" {
		return nil, fmt.Errorf("twilio from number must be provided")
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})
	return &TwilioSender{client: client, fromWhats: cfg.FromWhats}, nil
}

// SendText sends one WhatsApp message. chatID is the bare E.164 number.
func (s *TwilioSender) SendText(_ context.Context, chatID, text string) error {
	params := &twilioApi.CreateMessageParams{}
	params.SetTo("whatsapp:" + chatID)
	params.SetFrom(s.fromWhats)
	params.SetBody(text)

	if _, err := s.client.Api.CreateMessage(params); err != nil {
		slog.Error("TwilioSender.SendText: send failed", "to", chatID, "error", err)
		return fmt.Errorf("failed to send message to %s: %w", chatID, err)
	}
	slog.Debug("TwilioSender.SendText: message sent", "to", chatID)
	return nil
}

// ParseTwilioInbound normalizes a Twilio webhook form post. The chat id is
// the sender number with the whatsapp: prefix stripped.
func ParseTwilioInbound(tenantID string, form url.Values) (*models.InboundMessage, error) {
	from := strings.TrimPrefix(form.Get("From"), "whatsapp:")
	if from == "" {
		return nil, fmt.Errorf("twilio webhook has no From field")
	}
	msg := &models.InboundMessage{
		TenantID:   tenantID,
		Provider:   models.ProviderTwilio,
		ChatID:     from,
		MessageID:  form.Get("MessageSid"),
		Text:       form.Get("Body"),
		SenderName: form.Get("ProfileName"),
		ReceivedAt: time.Now().UTC(),
	}

	if numMedia, err := strconv.Atoi(form.Get("NumMedia")); err == nil {
		for i := 0; i < numMedia; i++ {
			msg.Media = append(msg.Media, models.Media{
				ContentType:     form.Get("MediaContentType" + strconv.Itoa(i)),
				ProviderMediaID: form.Get("MediaUrl" + strconv.Itoa(i)),
			})
		}
	}

	if lat, err := strconv.ParseFloat(form.Get("Latitude"), 64); err == nil {
		lon, lonErr := strconv.ParseFloat(form.Get("Longitude"), 64)
		if lonErr == nil {
			msg.Location = &models.Location{
				Lat:     lat,
				Lon:     lon,
				Name:    form.Get("Label"),
				Address: form.Get("Address"),
			}
		}
	}
	return msg, nil
}
