package store

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/relomove/leadbot/internal/models"
)

//go:embed migrations_sqlite.sql
var sqliteMigrations string

// SQLiteStore persists sessions and leads in a local SQLite file. Lead data
// is stored as a JSON blob so schema churn in LeadData needs no migration.
type SQLiteStore struct {
	db *sql.DB
}

// SQLiteOption configures a SQLiteStore before the schema is applied.
type SQLiteOption func(*sqliteConfig)

type sqliteConfig struct {
	dsn string
}

// WithSQLiteDSN sets the database path (or ":memory:").
func WithSQLiteDSN(dsn string) SQLiteOption {
	return func(c *sqliteConfig) { c.dsn = dsn }
}

// NewSQLiteStore opens the database and applies migrations.
func NewSQLiteStore(opts ...SQLiteOption) (*SQLiteStore, error) {
	cfg := sqliteConfig{dsn: "leadbot.db"}
	for _, opt := range opts {
		opt(&cfg)
	}
	db, err := sql.Open("sqlite3", cfg.dsn+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	if _, err := db.Exec(sqliteMigrations); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply sqlite migrations: %w", err)
	}
	slog.Debug("NewSQLiteStore: database ready", "dsn", cfg.dsn)
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) GetSession(ctx context.Context, tenantID, chatID string) (*models.SessionState, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT lead_id, bot_type, step, language, data, metadata, updated_at
		FROM sessions WHERE tenant_id = ? AND chat_id = ?`, tenantID, chatID)

	var (
		state              models.SessionState
		dataJSON, metaJSON string
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
	if err := json.Unmarshal([]byte(dataJSON), &state.Data); err != nil {
		return nil, fmt.Errorf("failed to decode session data: %w", err)
	}
	if err := json.Unmarshal([]byte(metaJSON), &state.Metadata); err != nil {
		return nil, fmt.Errorf("failed to decode session metadata: %w", err)
	}
	return &state, nil
}

func (s *SQLiteStore) SaveSession(ctx context.Context, state *models.SessionState) error {
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
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (tenant_id, chat_id) DO UPDATE SET
			lead_id = excluded.lead_id,
			bot_type = excluded.bot_type,
			step = excluded.step,
			language = excluded.language,
			data = excluded.data,
			metadata = excluded.metadata,
			updated_at = excluded.updated_at`,
		state.TenantID, state.ChatID, state.LeadID, state.BotType, state.Step,
		state.Language, string(dataJSON), string(metaJSON), state.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (s *SQLiteStore) DeleteSession(ctx context.Context, tenantID, chatID string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE tenant_id = ? AND chat_id = ?`, tenantID, chatID)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func (s *SQLiteStore) SaveLead(ctx context.Context, lead *models.Lead) error {
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
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		lead.ID, lead.TenantID, lead.ChatID, lead.Provider, lead.BotType,
		lead.Language, lead.SenderName, string(dataJSON), string(metaJSON), lead.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save lead: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListLeads(ctx context.Context, tenantID string, limit int) ([]models.Lead, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, chat_id, provider, bot_type, language, sender_name, data, metadata, created_at
		FROM leads WHERE tenant_id = ?
		ORDER BY created_at DESC LIMIT ?`, tenantID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list leads: %w", err)
	}
	defer rows.Close()

	var out []models.Lead
	for rows.Next() {
		var (
			lead               models.Lead
			dataJSON, metaJSON string
		)
		lead.TenantID = tenantID
		if err := rows.Scan(&lead.ID, &lead.ChatID, &lead.Provider, &lead.BotType,
			&lead.Language, &lead.SenderName, &dataJSON, &metaJSON, &lead.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan lead: %w", err)
		}
		if err := json.Unmarshal([]byte(dataJSON), &lead.Data); err != nil {
			return nil, fmt.Errorf("failed to decode lead data: %w", err)
		}
		if err := json.Unmarshal([]byte(metaJSON), &lead.Metadata); err != nil {
			return nil, fmt.Errorf("failed to decode lead metadata: %w", err)
		}
		out = append(out, lead)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) MarkProcessed(ctx context.Context, provider models.Provider, messageID string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO processed_messages (provider, message_id, seen_at)
		VALUES (?, ?, ?)
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

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
