package store

import (
	"context"
	"sync"
	"time"

	"github.com/relomove/leadbot/internal/models"
)

// MemoryStore is an in-process Store for tests and single-node development
// runs. Sessions expire after the configured TTL; expiry is checked lazily
// on read.
type MemoryStore struct {
	mu         sync.RWMutex
	sessions   map[string]memorySession
	leads      []models.Lead
	processed  map[string]time.Time
	sessionTTL time.Duration
	dedupTTL   time.Duration
	now        func() time.Time
}

type memorySession struct {
	state   models.SessionState
	savedAt time.Time
}

// MemoryOption configures a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithSessionTTL sets the idle lifetime of a session; zero disables expiry.
func WithSessionTTL(ttl time.Duration) MemoryOption {
	return func(s *MemoryStore) { s.sessionTTL = ttl }
}

// WithDedupTTL sets how long a processed message id is remembered.
func WithDedupTTL(ttl time.Duration) MemoryOption {
	return func(s *MemoryStore) { s.dedupTTL = ttl }
}

// WithClock overrides the clock, for tests.
func WithClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) { s.now = now }
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		sessions:  make(map[string]memorySession),
		processed: make(map[string]time.Time),
		dedupTTL:  24 * time.Hour,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func sessionKey(tenantID, chatID string) string {
	return tenantID + "|" + chatID
}

func (s *MemoryStore) GetSession(_ context.Context, tenantID, chatID string) (*models.SessionState, error) {
	s.mu.RLock()
	entry, ok := s.sessions[sessionKey(tenantID, chatID)]
	s.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	if s.sessionTTL > 0 && s.now().Sub(entry.savedAt) > s.sessionTTL {
		return nil, nil
	}
	state := entry.state
	return &state, nil
}

func (s *MemoryStore) SaveSession(_ context.Context, state *models.SessionState) error {
	if state.TenantID == "" {
		return models.ErrEmptyTenant
	}
	if state.ChatID == "" {
		return models.ErrEmptyChat
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sessionKey(state.TenantID, state.ChatID)] = memorySession{
		state:   *state,
		savedAt: s.now(),
	}
	return nil
}

func (s *MemoryStore) DeleteSession(_ context.Context, tenantID, chatID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionKey(tenantID, chatID))
	return nil
}

func (s *MemoryStore) SaveLead(_ context.Context, lead *models.Lead) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.leads = append(s.leads, *lead)
	return nil
}

func (s *MemoryStore) ListLeads(_ context.Context, tenantID string, limit int) ([]models.Lead, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Lead
	for i := len(s.leads) - 1; i >= 0; i-- {
		if s.leads[i].TenantID != tenantID {
			continue
		}
		out = append(out, s.leads[i])
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (s *MemoryStore) MarkProcessed(_ context.Context, provider models.Provider, messageID string) (bool, error) {
	key := string(provider) + "|" + messageID
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	// Expired entries are swept on every call so the map stays bounded by
	// one dedup window of traffic.
	for k, seenAt := range s.processed {
		if now.Sub(seenAt) > s.dedupTTL {
			delete(s.processed, k)
		}
	}
	if _, seen := s.processed[key]; seen {
		return false, nil
	}
	s.processed[key] = now
	return true, nil
}

func (s *MemoryStore) Close() error { return nil }
