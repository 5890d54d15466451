// Package engine orchestrates inbound messages: dedup, session lifecycle,
// handler dispatch, persistence and lead finalization. It owns no
// conversation logic; that lives in the bot handlers.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/relomove/leadbot/internal/bot"
	"github.com/relomove/leadbot/internal/models"
	"github.com/relomove/leadbot/internal/store"
)

// Notifier receives finalized leads. Implementations must not block for
// long; the engine calls them inline on the webhook path.
type Notifier interface {
	LeadCreated(ctx context.Context, lead *models.Lead) error
}

// Engine processes provider-agnostic inbound messages into replies.
type Engine struct {
	store      store.Store
	registry   *bot.Registry
	notifier   Notifier
	botTypes   map[string]models.BotType
	botType    models.BotType
	sessionTTL time.Duration
	now        func() time.Time
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithNotifier attaches a lead notifier; without one leads are only stored.
func WithNotifier(n Notifier) EngineOption {
	return func(e *Engine) { e.notifier = n }
}

// WithDefaultBotType sets the bot type for tenants with no explicit mapping.
func WithDefaultBotType(t models.BotType) EngineOption {
	return func(e *Engine) { e.botType = t }
}

// WithTenantBotTypes maps specific tenants to bot types.
func WithTenantBotTypes(m map[string]models.BotType) EngineOption {
	return func(e *Engine) { e.botTypes = m }
}

// WithSessionTTL discards sessions idle for longer than ttl, regardless of
// whether the backing store expires them on its own. Zero disables the check.
func WithSessionTTL(ttl time.Duration) EngineOption {
	return func(e *Engine) { e.sessionTTL = ttl }
}

// WithEngineClock overrides the clock, for tests.
func WithEngineClock(now func() time.Time) EngineOption {
	return func(e *Engine) { e.now = now }
}

// New builds an engine over its store and handler registry.
func New(st store.Store, registry *bot.Registry, opts ...EngineOption) *Engine {
	e := &Engine{
		store:    st,
		registry: registry,
		botType:  models.BotTypeMoving,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// HandleInbound processes one message and returns the reply text. An empty
// reply with a nil error means the message was deliberately ignored
// (duplicate delivery or nothing to say).
func (e *Engine) HandleInbound(ctx context.Context, msg *models.InboundMessage) (string, error) {
	if err := msg.Validate(); err != nil {
		return "", fmt.Errorf("invalid inbound message: %w", err)
	}

	if msg.MessageID != "" {
		first, err := e.store.MarkProcessed(ctx, msg.Provider, msg.MessageID)
		if err != nil {
			return "", fmt.Errorf("failed to check message dedup: %w", err)
		}
		if !first {
			slog.Debug("Engine.HandleInbound: duplicate delivery dropped",
				"provider", msg.Provider, "messageID", msg.MessageID)
			return "", nil
		}
	}

	handler, session, err := e.loadSession(ctx, msg)
	if err != nil {
		return "", err
	}

	reply := e.dispatch(handler, session, msg)

	session.UpdatedAt = e.now().UTC()
	if err := e.store.SaveSession(ctx, session); err != nil {
		return "", fmt.Errorf("failed to persist session: %w", err)
	}

	if reply.Done {
		if err := e.finalize(ctx, session, msg); err != nil {
			// The user already got their confirmation; losing the lead
			// record is an operator-side failure worth a loud log.
			slog.Error("Engine.HandleInbound: lead finalization failed",
				"tenantID", session.TenantID, "chatID", session.ChatID,
				"leadID", session.LeadID, "error", err)
		}
	}
	return reply.Text, nil
}

// loadSession fetches or creates the session and resolves its handler.
// Sessions left at the retired combined time step resume at the slot menu.
func (e *Engine) loadSession(ctx context.Context, msg *models.InboundMessage) (bot.Handler, *models.SessionState, error) {
	session, err := e.store.GetSession(ctx, msg.TenantID, msg.ChatID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load session: %w", err)
	}
	if session != nil && e.sessionTTL > 0 && e.now().UTC().Sub(session.UpdatedAt) > e.sessionTTL {
		slog.Debug("Engine.loadSession: idle session expired",
			"tenantID", msg.TenantID, "chatID", msg.ChatID,
			"updatedAt", session.UpdatedAt)
		if err := e.store.DeleteSession(ctx, msg.TenantID, msg.ChatID); err != nil {
			slog.Warn("Engine.loadSession: failed to drop expired session",
				"tenantID", msg.TenantID, "chatID", msg.ChatID, "error", err)
		}
		session = nil
	}

	botType := e.botType
	if t, ok := e.botTypes[msg.TenantID]; ok {
		botType = t
	}
	if session != nil {
		botType = session.BotType
	}
	handler, err := e.registry.Handler(botType)
	if err != nil {
		return nil, nil, err
	}

	if session == nil {
		session = &models.SessionState{
			TenantID: msg.TenantID,
			ChatID:   msg.ChatID,
			LeadID:   uuid.NewString(),
			BotType:  handler.Type(),
			Step:     handler.InitialStep(),
			Language: handler.DefaultLanguage(),
		}
		session.ResetData()
		slog.Debug("Engine.loadSession: new session",
			"tenantID", msg.TenantID, "chatID", msg.ChatID,
			"leadID", session.LeadID, "botType", session.BotType)
	} else if session.Step == models.StepLegacyTime {
		session.Step = models.StepTimeSlot
		slog.Debug("Engine.loadSession: legacy time step rewritten",
			"tenantID", msg.TenantID, "chatID", msg.ChatID)
	}
	return handler, session, nil
}

// dispatch routes the message parts in priority order: a GPS pin is the
// whole message, media is recorded before any caption text is handled.
func (e *Engine) dispatch(handler bot.Handler, session *models.SessionState, msg *models.InboundMessage) bot.Reply {
	if msg.Location != nil {
		return handler.HandleLocation(session, msg.Location)
	}
	var reply bot.Reply
	if len(msg.Media) > 0 {
		reply = handler.HandleMedia(session, msg.Media)
	}
	if msg.Text != "" {
		textReply := handler.HandleText(session, msg.Text)
		if textReply.Text != "" || textReply.Done {
			reply = textReply
		}
	}
	return reply
}

func (e *Engine) finalize(ctx context.Context, session *models.SessionState, msg *models.InboundMessage) error {
	lead := &models.Lead{
		ID:         session.LeadID,
		TenantID:   session.TenantID,
		ChatID:     session.ChatID,
		Provider:   msg.Provider,
		BotType:    session.BotType,
		Language:   session.Language,
		SenderName: msg.SenderName,
		Data:       session.Data,
		Metadata:   session.Metadata,
		CreatedAt:  e.now().UTC(),
	}
	if err := e.store.SaveLead(ctx, lead); err != nil {
		return fmt.Errorf("failed to save lead: %w", err)
	}
	slog.Info("Engine.finalize: lead created",
		"tenantID", lead.TenantID, "leadID", lead.ID,
		"provider", lead.Provider, "language", lead.Language)
	if e.notifier != nil {
		if err := e.notifier.LeadCreated(ctx, lead); err != nil {
			return fmt.Errorf("failed to notify operator: %w", err)
		}
	}
	return nil
}
