package store

import (
	"context"
)

// ImportStats counts what Import wrote.
type ImportStats struct {
	Welcome int
	Groups  int
}

// Import copies every template and group of doc into dst. Templates
// overwrite existing ones; groups already known to dst are skipped.
func Import(ctx context.Context, dst Store, doc *Document) (ImportStats, error) {
	var stats ImportStats
	for _, e := range doc.Welcomes() {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		if err := dst.SetWelcome(ctx, e.ChatID, e.Text); err != nil {
			return stats, err
		}
		stats.Welcome++
	}
	for _, id := range doc.Groups() {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		added, err := dst.TrackGroup(ctx, id)
		if err != nil {
			return stats, err
		}
		if added {
			stats.Groups++
		}
	}
	return stats, nil
}
