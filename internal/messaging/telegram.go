package messaging

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"

	"github.com/relomove/leadbot/internal/models"
)

// TelegramSender sends texts through the Telegram Bot API.
type TelegramSender struct {
	bot *bot.Bot
}

// NewTelegramSender builds the client; an empty token falls back to the
// TELEGRAM_BOT_TOKEN environment variable.
func NewTelegramSender(token string, opts ...bot.Option) (*TelegramSender, error) {
	if token == "" {
		token = os.Getenv("TELEGRAM_BOT_TOKEN")
	}
	if token == "" {
		return nil, fmt.Errorf("telegram bot token must be provided")
	}
	b, err := bot.New(token, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	return &TelegramSender{bot: b}, nil
}

// SendText sends one message. chatID is the numeric Telegram chat id.
func (s *TelegramSender) SendText(ctx context.Context, chatID, text string) error {
	id, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid telegram chat id %q: %w", chatID, err)
	}
	if _, err := s.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: id,
		Text:   text,
	}); err != nil {
		slog.Error("TelegramSender.SendText: send failed", "chatID", chatID, "error", err)
		return fmt.Errorf("failed to send message to chat %s: %w", chatID, err)
	}
	slog.Debug("TelegramSender.SendText: message sent", "chatID", chatID)
	return nil
}

// ParseTelegramUpdate normalizes a Bot API update. Updates without a
// message (edits, callback queries) return nil.
func ParseTelegramUpdate(tenantID string, update *tgmodels.Update) *models.InboundMessage {
	if update == nil || update.Message == nil {
		return nil
	}
	m := update.Message
	msg := &models.InboundMessage{
		TenantID:   tenantID,
		Provider:   models.ProviderTelegram,
		ChatID:     strconv.FormatInt(m.Chat.ID, 10),
		MessageID:  strconv.Itoa(m.ID),
		Text:       m.Text,
		ReceivedAt: time.Unix(int64(m.Date), 0).UTC(),
	}
	if m.From != nil {
		msg.SenderName = strings.TrimSpace(m.From.FirstName + " " + m.From.LastName)
	}
	if m.Caption != "" && msg.Text == "" {
		msg.Text = m.Caption
	}
	if len(m.Photo) > 0 {
		// Telegram sends one photo per message in several resolutions;
		// only the largest rendition matters.
		best := m.Photo[len(m.Photo)-1]
		msg.Media = append(msg.Media, models.Media{
			ContentType:     "image/jpeg",
			SizeBytes:       int64(best.FileSize),
			ProviderMediaID: best.FileID,
		})
	}
	if m.Location != nil {
		msg.Location = &models.Location{
			Lat: m.Location.Latitude,
			Lon: m.Location.Longitude,
		}
	}
	return msg
}
