package store

import (
	"context"
	"os"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/utilbot/core/database"
)

// openPostgres connects to UTILBOT_TEST_DSN, migrates, and empties the tables.
func openPostgres(t *testing.T) *PostgresStore {
	t.Helper()
	dsn := os.Getenv("UTILBOT_TEST_DSN")
	if dsn == "" {
		t.Skip("UTILBOT_TEST_DSN not set")
	}
	ctx := context.Background()
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	require.NoError(t, err)
	require.NoError(t, database.RunMigrations(ctx, db))
	_, err = db.ExecContext(ctx, `TRUNCATE welcome_templates, known_groups`)
	require.NoError(t, err)

	s := NewPostgres(db)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestPostgresStore(t *testing.T) {
	s := openPostgres(t)
	ctx := context.Background()

	text, err := s.Welcome(ctx, -100123)
	require.NoError(t, err)
	assert.Equal(t, DefaultWelcome, text)

	require.NoError(t, s.SetWelcome(ctx, -100123, "Hi {name}"))
	require.NoError(t, s.SetWelcome(ctx, -100123, "Hi again {name}"))
	text, err = s.Welcome(ctx, -100123)
	require.NoError(t, err)
	assert.Equal(t, "Hi again {name}", text)

	for _, id := range []int64{-100222, -100111} {
		added, err := s.TrackGroup(ctx, id)
		require.NoError(t, err)
		assert.True(t, added)
	}
	added, err := s.TrackGroup(ctx, -100222)
	require.NoError(t, err)
	assert.False(t, added)

	groups, err := s.Groups(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{-100222, -100111}, groups)
}
