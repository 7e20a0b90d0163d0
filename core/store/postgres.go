package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	boterr "github.com/m3rciful/utilbot/core/errors"
)

// PostgresStore keeps templates and groups in the welcome_templates and
// known_groups tables created by the embedded migrations.
type PostgresStore struct {
	db *sqlx.DB
}

var _ Store = (*PostgresStore)(nil)

// NewPostgres wraps an already migrated database. The store owns db and
// closes it on Close.
func NewPostgres(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const (
	selectWelcomeSQL = `SELECT template FROM welcome_templates WHERE chat_id = $1`
	upsertWelcomeSQL = `
INSERT INTO welcome_templates (chat_id, template)
VALUES ($1, $2)
ON CONFLICT (chat_id) DO UPDATE SET template = EXCLUDED.template, updated_at = now()`
	insertGroupSQL = `INSERT INTO known_groups (chat_id) VALUES ($1) ON CONFLICT (chat_id) DO NOTHING`
	selectGroupSQL = `SELECT chat_id FROM known_groups ORDER BY position`
)

// Welcome returns the chat's template, or DefaultWelcome when no row exists.
func (s *PostgresStore) Welcome(ctx context.Context, chatID int64) (string, error) {
	var text string
	err := s.db.GetContext(ctx, &text, selectWelcomeSQL, chatID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return DefaultWelcome, nil
	case err != nil:
		return "", dbErr(err, "select welcome template", chatID)
	}
	return text, nil
}

// SetWelcome upserts the chat's template.
func (s *PostgresStore) SetWelcome(ctx context.Context, chatID int64, text string) error {
	if _, err := s.db.ExecContext(ctx, upsertWelcomeSQL, chatID, text); err != nil {
		return dbErr(err, "upsert welcome template", chatID)
	}
	return nil
}

// TrackGroup inserts chatID and reports whether a row was added.
func (s *PostgresStore) TrackGroup(ctx context.Context, chatID int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, insertGroupSQL, chatID)
	if err != nil {
		return false, dbErr(err, "insert known group", chatID)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, dbErr(err, "insert known group", chatID)
	}
	return n == 1, nil
}

// Groups lists known groups by insertion position.
func (s *PostgresStore) Groups(ctx context.Context) ([]int64, error) {
	ids := []int64{}
	if err := s.db.SelectContext(ctx, &ids, selectGroupSQL); err != nil {
		return nil, boterr.Wrap(err, boterr.CodeStoreDatabaseFailure, "select known groups")
	}
	return ids, nil
}

// Close closes the underlying database handle.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func dbErr(err error, msg string, chatID int64) error {
	return boterr.Wrap(err, boterr.CodeStoreDatabaseFailure, msg, boterr.FieldChatID(chatID))
}
