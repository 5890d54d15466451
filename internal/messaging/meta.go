package messaging

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/relomove/leadbot/internal/models"
)

const metaGraphBase = "https://graph.facebook.com/v19.0"

// MetaOpts holds configuration for the WhatsApp Cloud API client.
type MetaOpts struct {
	AccessToken   string
	PhoneNumberID string
	BaseURL       string
	HTTPClient    *http.Client
}

// MetaOption configures the Cloud API client.
type MetaOption func(*MetaOpts)

// WithMetaAccessToken sets the Graph API bearer token.
func WithMetaAccessToken(token string) MetaOption {
	return func(o *MetaOpts) { o.AccessToken = token }
}

// WithMetaPhoneNumberID sets the sending phone number id.
func WithMetaPhoneNumberID(id string) MetaOption {
	return func(o *MetaOpts) { o.PhoneNumberID = id }
}

// WithMetaBaseURL overrides the Graph API endpoint, for tests.
func WithMetaBaseURL(u string) MetaOption {
	return func(o *MetaOpts) { o.BaseURL = u }
}

// WithMetaHTTPClient injects the HTTP client, for tests.
func WithMetaHTTPClient(c *http.Client) MetaOption {
	return func(o *MetaOpts) { o.HTTPClient = c }
}

// MetaSender sends texts through the WhatsApp Cloud API.
type MetaSender struct {
	token   string
	phoneID string
	baseURL string
	http    *http.Client
}

// NewMetaSender builds the client, falling back to META_ACCESS_TOKEN and
// META_PHONE_NUMBER_ID environment variables.
func NewMetaSender(opts ...MetaOption) (*MetaSender, error) {
	cfg := MetaOpts{BaseURL: metaGraphBase}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.AccessToken == "" {
		cfg.AccessToken = os.Getenv("META_ACCESS_TOKEN")
	}
	if cfg.PhoneNumberID == "" {
		cfg.PhoneNumberID = os.Getenv("META_PHONE_NUMBER_ID")
	}
	if cfg.AccessToken == "" || cfg.PhoneNumberID == "" {
		return nil, fmt.Errorf("meta access token and phone number id must be provided")
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &MetaSender{
		token:   cfg.AccessToken,
		phoneID: cfg.PhoneNumberID,
		baseURL: cfg.BaseURL,
		http:    cfg.HTTPClient,
	}, nil
}

// SendText sends one message. chatID is the recipient's E.164 number.
func (s *MetaSender) SendText(ctx context.Context, chatID, text string) error {
	payload := map[string]interface{}{
		"messaging_product": "whatsapp",
		"to":                chatID,
		"type":              "text",
		"text":              map[string]string{"body": text},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode message payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		s.baseURL+"/"+s.phoneID+"/messages", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		slog.Error("MetaSender.SendText: request failed", "to", chatID, "error", err)
		return fmt.Errorf("failed to send message to %s: %w", chatID, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		slog.Error("MetaSender.SendText: API error",
			"to", chatID, "status", resp.StatusCode, "body", string(detail))
		return fmt.Errorf("cloud API returned status %d", resp.StatusCode)
	}
	slog.Debug("MetaSender.SendText: message sent", "to", chatID)
	return nil
}

// metaWebhook mirrors the Cloud API webhook envelope down to the fields
// the engine needs.
type metaWebhook struct {
	Entry []struct {
		Changes []struct {
			Value struct {
				Contacts []struct {
					Profile struct {
						Name string `json:"name"`
					} `json:"profile"`
					WaID string `json:"wa_id"`
				} `json:"contacts"`
				Messages []struct {
					From      string `json:"from"`
					ID        string `json:"id"`
					Timestamp string `json:"timestamp"`
					Type      string `json:"type"`
					Text      *struct {
						Body string `json:"body"`
					} `json:"text"`
					Image *struct {
						ID       string `json:"id"`
						MimeType string `json:"mime_type"`
						Caption  string `json:"caption"`
					} `json:"image"`
					Location *struct {
						Latitude  float64 `json:"latitude"`
						Longitude float64 `json:"longitude"`
						Name      string  `json:"name"`
						Address   string  `json:"address"`
					} `json:"location"`
				} `json:"messages"`
			} `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

// ParseMetaInbound normalizes a Cloud API webhook body. A single webhook
// can batch several messages; each becomes its own InboundMessage.
func ParseMetaInbound(tenantID string, body []byte) ([]*models.InboundMessage, error) {
	var wh metaWebhook
	if err := json.Unmarshal(body, &wh); err != nil {
		return nil, fmt.Errorf("failed to decode cloud API webhook: %w", err)
	}
	var out []*models.InboundMessage
	for _, entry := range wh.Entry {
		for _, change := range entry.Changes {
			names := make(map[string]string, len(change.Value.Contacts))
			for _, c := range change.Value.Contacts {
				names[c.WaID] = c.Profile.Name
			}
			for _, m := range change.Value.Messages {
				msg := &models.InboundMessage{
					TenantID:   tenantID,
					Provider:   models.ProviderMeta,
					ChatID:     m.From,
					MessageID:  m.ID,
					SenderName: names[m.From],
					ReceivedAt: time.Now().UTC(),
				}
				if m.Text != nil {
					msg.Text = m.Text.Body
				}
				if m.Image != nil {
					msg.Media = append(msg.Media, models.Media{
						ContentType:     m.Image.MimeType,
						ProviderMediaID: m.Image.ID,
					})
					if msg.Text == "" {
						msg.Text = m.Image.Caption
					}
				}
				if m.Location != nil {
					msg.Location = &models.Location{
						Lat:     m.Location.Latitude,
						Lon:     m.Location.Longitude,
						Name:    m.Location.Name,
						Address: m.Location.Address,
					}
				}
				out = append(out, msg)
			}
		}
	}
	return out, nil
}
