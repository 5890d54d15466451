package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/relomove/leadbot/internal/models"
)

// RedisStore keeps sessions as TTL'd JSON values and leads in a per-tenant
// list. A good fit when sessions should evaporate on their own and a
// separate system ingests leads.
type RedisStore struct {
	client     *redis.Client
	sessionTTL time.Duration
	dedupTTL   time.Duration
}

// RedisOption configures a RedisStore.
type RedisOption func(*redisConfig)

type redisConfig struct {
	url        string
	addr       string
	password   string
	db         int
	sessionTTL time.Duration
	dedupTTL   time.Duration
}

// WithRedisAddr sets the server address (host:port).
func WithRedisAddr(addr string) RedisOption {
	return func(c *redisConfig) { c.addr = addr }
}

// WithRedisPassword sets the AUTH password.
func WithRedisPassword(password string) RedisOption {
	return func(c *redisConfig) { c.password = password }
}

// WithRedisDB selects the logical database.
func WithRedisDB(db int) RedisOption {
	return func(c *redisConfig) { c.db = db }
}

// WithRedisSessionTTL sets the idle session lifetime; every save renews it.
func WithRedisSessionTTL(ttl time.Duration) RedisOption {
	return func(c *redisConfig) { c.sessionTTL = ttl }
}

// WithRedisURL parses a redis:// URL into address, password and database.
func WithRedisURL(rawURL string) RedisOption {
	return func(c *redisConfig) { c.url = rawURL }
}

// NewRedisStore connects and pings the server.
func NewRedisStore(ctx context.Context, opts ...RedisOption) (*RedisStore, error) {
	cfg := redisConfig{
		addr:       "localhost:6379",
		sessionTTL: 72 * time.Hour,
		dedupTTL:   24 * time.Hour,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	var clientOpts *redis.Options
	if cfg.url != "" {
		parsed, err := redis.ParseURL(cfg.url)
		if err != nil {
			return nil, fmt.Errorf("invalid redis URL: %w", err)
		}
		clientOpts = parsed
	} else {
		clientOpts = &redis.Options{
			Addr:     cfg.addr,
			Password: cfg.password,
			DB:       cfg.db,
		}
	}
	client := redis.NewClient(clientOpts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	slog.Debug("NewRedisStore: connected", "addr", clientOpts.Addr, "sessionTTL", cfg.sessionTTL)
	return &RedisStore{
		client:     client,
		sessionTTL: cfg.sessionTTL,
		dedupTTL:   cfg.dedupTTL,
	}, nil
}

func redisSessionKey(tenantID, chatID string) string {
	return "leadbot:session:" + tenantID + ":" + chatID
}

func redisLeadsKey(tenantID string) string {
	return "leadbot:leads:" + tenantID
}

func redisDedupKey(provider models.Provider, messageID string) string {
	return "leadbot:seen:" + string(provider) + ":" + messageID
}

func (s *RedisStore) GetSession(ctx context.Context, tenantID, chatID string) (*models.SessionState, error) {
	raw, err := s.client.Get(ctx, redisSessionKey(tenantID, chatID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	var state models.SessionState
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	return &state, nil
}

func (s *RedisStore) SaveSession(ctx context.Context, state *models.SessionState) error {
	if state.TenantID == "" {
		return models.ErrEmptyTenant
	}
	if state.ChatID == "" {
		return models.ErrEmptyChat
	}
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	key := redisSessionKey(state.TenantID, state.ChatID)
	if err := s.client.Set(ctx, key, raw, s.sessionTTL).Err(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (s *RedisStore) DeleteSession(ctx context.Context, tenantID, chatID string) error {
	if err := s.client.Del(ctx, redisSessionKey(tenantID, chatID)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func (s *RedisStore) SaveLead(ctx context.Context, lead *models.Lead) error {
	raw, err := json.Marshal(lead)
	if err != nil {
		return fmt.Errorf("failed to encode lead: %w", err)
	}
	if err := s.client.LPush(ctx, redisLeadsKey(lead.TenantID), raw).Err(); err != nil {
		return fmt.Errorf("failed to save lead: %w", err)
	}
	return nil
}

func (s *RedisStore) ListLeads(ctx context.Context, tenantID string, limit int) ([]models.Lead, error) {
	if limit <= 0 {
		limit = 100
	}
	raws, err := s.client.LRange(ctx, redisLeadsKey(tenantID), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list leads: %w", err)
	}
	out := make([]models.Lead, 0, len(raws))
	for _, raw := range raws {
		var lead models.Lead
		if err := json.Unmarshal([]byte(raw), &lead); err != nil {
			return nil, fmt.Errorf("failed to decode lead: %w", err)
		}
		out = append(out, lead)
	}
	return out, nil
}

func (s *RedisStore) MarkProcessed(ctx context.Context, provider models.Provider, messageID string) (bool, error) {
	first, err := s.client.SetNX(ctx, redisDedupKey(provider, messageID), "1", s.dedupTTL).Result()
	if err != nil {
		return false, fmt.Errorf("failed to mark message processed: %w", err)
	}
	return first, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
