// Package database connects to Postgres and applies the embedded schema.
package database

import (
	"context"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/m3rciful/utilbot/core/config"
	boterr "github.com/m3rciful/utilbot/core/errors"
	"github.com/m3rciful/utilbot/core/logger"
)

// Connect opens the database connection, configures the pool, and verifies connectivity.
func Connect(ctx context.Context, cfg config.DatabaseConfig) (*sqlx.DB, error) {
	log := logger.OrDiscard(logger.DB)
	connectCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	target := []slog.Attr{
		slog.String("driver", "postgres"),
		slog.String("host", cfg.Host),
		slog.String("port", cfg.Port),
		slog.String("db", cfg.Name),
	}

	start := time.Now()
	db, err := sqlx.ConnectContext(connectCtx, "postgres", cfg.DSN())
	took := logger.Took(start)
	if err != nil {
		logger.LogEvent(ctx, log, slog.LevelError, "db.connect", append(target,
			slog.String("status", logger.StatusFail),
			slog.Duration("duration", took),
			slog.Any("err", err),
		)...)
		return nil, boterr.Wrap(err, boterr.CodeDatabaseConnectFailure, "db connect",
			boterr.Field("host", cfg.Host), boterr.Field("db", cfg.Name))
	}

	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MaxConnections)
	db.SetConnMaxLifetime(30 * time.Minute)

	logger.LogEvent(ctx, log, slog.LevelInfo, "db.connect", append(target,
		slog.String("status", logger.StatusOK),
		slog.Int("pool_open", cfg.MaxConnections),
		slog.Duration("duration", took),
	)...)
	return db, nil
}

// WaitReady pings db until it answers, ctx ends, or timeout passes.
func WaitReady(ctx context.Context, db *sqlx.DB, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		err := db.PingContext(ctx)
		if err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return boterr.Wrap(err, boterr.CodeDatabaseConnectFailure, "database not ready")
		case <-ticker.C:
		}
	}
}

// Close closes db and logs the outcome.
func Close(db *sqlx.DB) {
	if db == nil {
		return
	}
	log := logger.OrDiscard(logger.DB)
	if err := db.Close(); err != nil {
		log.Error("", slog.String("event", "db.close"), slog.Any("err", err))
		return
	}
	log.Debug("", slog.String("event", "db.close"), slog.String("status", logger.StatusOK))
}
