// Package store persists conversation sessions, finalized leads and the
// inbound message dedup set. Backends share one interface so the engine is
// indifferent to which of them a deployment picks.
package store

import (
	"context"

	"github.com/relomove/leadbot/internal/models"
)

// Store is the persistence boundary. GetSession returns (nil, nil) when no
// session exists for the pair; absence is an expected state, not an error.
type Store interface {
	// GetSession loads the single session for a (tenant, chat) pair.
	GetSession(ctx context.Context, tenantID, chatID string) (*models.SessionState, error)
	// SaveSession upserts the session keyed by (tenant, chat).
	SaveSession(ctx context.Context, state *models.SessionState) error
	// DeleteSession removes the session; deleting a missing one is a no-op.
	DeleteSession(ctx context.Context, tenantID, chatID string) error

	// SaveLead appends a finalized lead.
	SaveLead(ctx context.Context, lead *models.Lead) error
	// ListLeads returns a tenant's newest leads, newest first.
	ListLeads(ctx context.Context, tenantID string, limit int) ([]models.Lead, error)

	// MarkProcessed records a provider message id and reports whether this
	// call was the first to see it. The engine drops redelivered webhooks
	// when it returns false.
	MarkProcessed(ctx context.Context, provider models.Provider, messageID string) (bool, error)

	Close() error
}
