package store

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq"

	"github.com/relomove/leadbot/internal/models"
)

//go:embed migrations_postgres.sql
var postgresMigrations string

// PostgresStore is the production Store. Layout mirrors the SQLite backend
// with JSONB payload columns.
type PostgresStore struct {
	db *sql.DB
}

// PostgresOption configures a PostgresStore.
type PostgresOption func(*postgresConfig)

type postgresConfig struct {
	dsn          string
	maxOpenConns int
}

// WithPostgresDSN sets the connection string.
func WithPostgresDSN(dsn string) PostgresOption {
	return func(c *postgresConfig) { c.dsn = dsn }
}

// WithMaxOpenConns caps the connection pool.
func WithMaxOpenConns(n int) PostgresOption {
	return func(c *postgresConfig) { c.maxOpenConns = n }
}

// NewPostgresStore connects, pings and applies migrations.
func NewPostgresStore(ctx context.Context, opts ...PostgresOption) (*PostgresStore, error) {
	cfg := postgresConfig{maxOpenConns: 10}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.dsn == "" {
		return nil, fmt.Errorf("postgres DSN is required")
	}
	db, err := sql.Open("postgres", cfg.dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}
	db.SetMaxOpenConns(cfg.maxOpenConns)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}
	if _, err := db.ExecContext(ctx, postgresMigrations); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply postgres migrations: %w", err)
	}
	slog.Debug("NewPostgresStore: database ready", "maxOpenConns", cfg.maxOpenConns)
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) GetSession(ctx context.Context, tenantID, chatID string) (*models.SessionState, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT lead_id, bot_type, step, language, data, metadata, updated_at
		FROM sessions WHERE tenant_id = $1 AND chat_id = $2`, tenantID, chatID)

	var (
		state              models.SessionState
		dataJSON, metaJSON []byte
	)
	state.TenantID = tenantID
	state.ChatID = chatID
	err := row.Scan(&state.LeadID, &state.BotType, &state.Step, &state.Language,
		&dataJSON, &metaJSON, &state.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if err := json.Unmarshal(dataJSON, &state.Data); err != nil {
		return nil, fmt.Errorf("failed to decode session data: %w", err)
	}
	if err := json.Unmarshal(metaJSON, &state.Metadata); err != nil {
		return nil, fmt.Errorf("failed to decode session metadata: %w", err)
	}
	return &state, nil
}

func (s *PostgresStore) SaveSession(ctx context.Context, state *models.SessionState) error {
	if state.TenantID == "" {
		return models.ErrEmptyTenant
	}
	if state.ChatID == "" {
		return models.ErrEmptyChat
	}
	dataJSON, err := json.Marshal(state.Data)
	if err != nil {
		return fmt.Errorf("failed to encode session data: %w", err)
	}
	metaJSON, err := json.Marshal(state.Metadata)
	if err != nil {
		return fmt.Errorf("failed to encode session metadata: %w", err)
	}
	if state.UpdatedAt.IsZero() {
		state.UpdatedAt = time.Now().UTC()
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sessions (tenant_id, chat_id, lead_id, bot_type, step, language, data, metadata, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (tenant_id, chat_id) DO UPDATE SET
			lead_id = EXCLUDED.lead_id,
			bot_type = EXCLUDED.bot_type,
			step = EXCLUDED.step,
			language = EXCLUDED.language,
			data = EXCLUDED.data,
			metadata = EXCLUDED.metadata,
			updated_at = EXCLUDED.updated_at`,
		state.TenantID, state.ChatID, state.LeadID, state.BotType, state.Step,
		state.Language, dataJSON, metaJSON, state.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeleteSession(ctx context.Context, tenantID, chatID string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE tenant_id = $1 AND chat_id = $2`, tenantID, chatID)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func (s *PostgresStore) SaveLead(ctx context.Context, lead *models.Lead) error {
	dataJSON, err := json.Marshal(lead.Data)
	if err != nil {
		return fmt.Errorf("failed to encode lead data: %w", err)
	}
	metaJSON, err := json.Marshal(lead.Metadata)
	if err != nil {
		return fmt.Errorf("failed to encode lead metadata: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO leads (id, tenant_id, chat_id, provider, bot_type, language, sender_name, data, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		lead.ID, lead.TenantID, lead.ChatID, lead.Provider, lead.BotType,
		lead.Language, lead.SenderName, dataJSON, metaJSON, lead.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save lead: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListLeads(ctx context.Context, tenantID string, limit int) ([]models.Lead, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, chat_id, provider, bot_type, language, sender_name, data, metadata, created_at
		FROM leads WHERE tenant_id = $1
		ORDER BY created_at DESC LIMIT $2`, tenantID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list leads: %w", err)
	}
	defer rows.Close()

	var out []models.Lead
	for rows.Next() {
		var (
			lead               models.Lead
			dataJSON, metaJSON []byte
		)
		lead.TenantID = tenantID
		if err := rows.Scan(&lead.ID, &lead.ChatID, &lead.Provider, &lead.BotType,
			&lead.Language, &lead.SenderName, &dataJSON, &metaJSON, &lead.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan lead: %w", err)
		}
		if err := json.Unmarshal(dataJSON, &lead.Data); err != nil {
			return nil, fmt.Errorf("failed to decode lead data: %w", err)
		}
		if err := json.Unmarshal(metaJSON, &lead.Metadata); err != nil {
			return nil, fmt.Errorf("failed to decode lead metadata: %w", err)
		}
		out = append(out, lead)
	}
	return out, rows.Err()
}

func (s *PostgresStore) MarkProcessed(ctx context.Context, provider models.Provider, messageID string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO processed_messages (provider, message_id, seen_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (provider, message_id) DO NOTHING`,
		provider, messageID, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("failed to mark message processed: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n > 0, nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
