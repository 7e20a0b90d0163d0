package bootstrap

import (
	"context"
	"log/slog"

	"github.com/m3rciful/utilbot/core/logger"
	"github.com/m3rciful/utilbot/core/store"
)

// Seeder loads data into a freshly opened store.
type Seeder interface {
	Seed(ctx context.Context, st store.Store) error
}

// DocumentSeeder copies the JSON document at Path into the store, so a
// bot can move from the json backend to postgres without losing data.
type DocumentSeeder struct {
	Path string
	// Stats is filled after a successful Seed.
	Stats store.ImportStats
}

// Seed implements Seeder.
func (d *DocumentSeeder) Seed(ctx context.Context, st store.Store) error {
	doc, err := store.ReadDocument(d.Path)
	if err != nil {
		return err
	}
	stats, err := store.Import(ctx, st, doc)
	if err != nil {
		return err
	}
	d.Stats = stats
	logger.LogEvent(ctx, logger.OrDiscard(logger.Store), slog.LevelInfo, "store.import",
		slog.String("status", logger.StatusOK),
		slog.String("path", d.Path),
		slog.Int("welcome", stats.Welcome),
		slog.Int("groups", stats.Groups),
	)
	return nil
}
