package database

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/utilbot/core/database/migrations"
	boterr "github.com/m3rciful/utilbot/core/errors"
	"github.com/m3rciful/utilbot/core/logger"
)

// RunMigrations applies all embedded up migrations to db.
func RunMigrations(ctx context.Context, db *sqlx.DB) error {
	log := logger.OrDiscard(logger.MIG)
	if db == nil {
		return boterr.New(boterr.CodeDatabaseMigrateFailure, "nil database handle")
	}
	if err := WaitReady(ctx, db, 30*time.Second); err != nil {
		logger.LogEvent(ctx, log, slog.LevelError, "db.migrate", slog.Any("err", err))
		return err
	}

	files := listMigrationFiles(migrations.FS)
	preview, truncated := logger.SummarizeStrings(files, 6)
	logger.LogEvent(ctx, log, slog.LevelDebug, "db.migrate.resolve",
		slog.Int("files_total", len(files)),
		slog.String("files_preview", preview),
		slog.Bool("files_truncated", truncated),
	)

	source, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return boterr.Wrap(err, boterr.CodeDatabaseMigrateFailure, "open embedded migrations")
	}
	driver, err := postgres.WithInstance(db.DB, &postgres.Config{})
	if err != nil {
		return boterr.Wrap(err, boterr.CodeDatabaseMigrateFailure, "init postgres migrate driver")
	}
	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return boterr.Wrap(err, boterr.CodeDatabaseMigrateFailure, "init migrations")
	}

	fromVer, _, _ := m.Version()
	start := time.Now()
	upErr := m.Up()
	took := logger.Took(start)

	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		logger.LogEvent(ctx, log, slog.LevelError, "db.migrate.apply",
			slog.String("status", logger.StatusFail),
			slog.Duration("duration", took),
			slog.Any("err", upErr),
		)
		return boterr.Wrap(upErr, boterr.CodeDatabaseMigrateFailure, "apply migrations")
	}

	toVer, _, _ := m.Version()
	logger.LogEvent(ctx, log, slog.LevelInfo, "db.migrate.summary",
		slog.String("status", logger.StatusOK),
		slog.Uint64("from_ver", uint64(fromVer)),
		slog.Uint64("to_ver", uint64(toVer)),
		slog.Int("files", countApplied(files, uint64(fromVer), uint64(toVer))),
		slog.Duration("duration", took),
	)
	return nil
}

func listMigrationFiles(fsys fs.FS) []string {
	names, err := fs.Glob(fsys, "*.up.sql")
	if err != nil {
		return nil
	}
	sort.Strings(names)
	return names
}

func parseVersion(name string) uint64 {
	prefix, _, _ := strings.Cut(name, "_")
	v, _ := strconv.ParseUint(prefix, 10, 64)
	return v
}

// countApplied counts migration files with a version in (from, to].
func countApplied(files []string, from, to uint64) int {
	c := 0
	for _, f := range files {
		if v := parseVersion(f); v > from && v <= to {
			c++
		}
	}
	return c
}
