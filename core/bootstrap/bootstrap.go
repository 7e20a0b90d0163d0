// Package bootstrap turns a loaded configuration into running
// infrastructure: the logger and the configured store.
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	coreconfig "github.com/m3rciful/utilbot/core/config"
	coredatabase "github.com/m3rciful/utilbot/core/database"
	boterr "github.com/m3rciful/utilbot/core/errors"
	"github.com/m3rciful/utilbot/core/logger"
	"github.com/m3rciful/utilbot/core/store"
)

const dbReadyTimeout = 30 * time.Second

// Options control the bootstrap pipeline. Nil hooks use the real
// implementations.
type Options struct {
	Config *coreconfig.Config

	LoggerInit func(*coreconfig.Config) error
	Connect    func(context.Context, coreconfig.DatabaseConfig) (*sqlx.DB, error)
	Migrate    func(context.Context, *sqlx.DB) error

	// Seeders run against the opened store before Run returns.
	Seeders []Seeder
}

// Result exposes infrastructure initialized by the bootstrap pipeline.
type Result struct {
	Store store.Store
	// DB is set for the postgres backend only.
	DB *sqlx.DB
}

// Close releases the store.
func (r *Result) Close() error {
	if r == nil || r.Store == nil {
		return nil
	}
	return r.Store.Close()
}

// Run initializes the logger, opens the store, and applies seeders.
func Run(ctx context.Context, opts Options) (*Result, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("bootstrap: nil config provided")
	}

	loggerInit := opts.LoggerInit
	if loggerInit == nil {
		loggerInit = logger.InitLogger
	}
	if err := loggerInit(opts.Config); err != nil {
		return nil, fmt.Errorf("bootstrap: logger init failed: %w", err)
	}

	res, err := OpenStore(ctx, opts)
	if err != nil {
		return nil, err
	}

	for _, s := range opts.Seeders {
		if err := s.Seed(ctx, res.Store); err != nil {
			_ = res.Close()
			return nil, fmt.Errorf("bootstrap: seeding failed: %w", err)
		}
	}
	return res, nil
}

// OpenStore opens the backend named by the storage config. The postgres
// backend connects, waits for the server, and migrates the schema first.
func OpenStore(ctx context.Context, opts Options) (*Result, error) {
	cfg := opts.Config
	switch cfg.Storage.Backend {
	case coreconfig.StoragePostgres:
		connect := opts.Connect
		if connect == nil {
			connect = coredatabase.Connect
		}
		db, err := connect(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("bootstrap: database initialization failed: %w", err)
		}
		if err := coredatabase.WaitReady(ctx, db, dbReadyTimeout); err != nil {
			coredatabase.Close(db)
			return nil, fmt.Errorf("bootstrap: database initialization failed: %w", err)
		}

		migrate := opts.Migrate
		if migrate == nil {
			migrate = coredatabase.RunMigrations
		}
		if err := migrate(ctx, db); err != nil {
			coredatabase.Close(db)
			return nil, fmt.Errorf("bootstrap: migrations failed: %w", err)
		}
		return &Result{Store: store.NewPostgres(db), DB: db}, nil

	case coreconfig.StorageJSON, "":
		path := cfg.Storage.DataFile
		if path == "" {
			path = coreconfig.DefaultDataFile
		}
		st, err := store.OpenFile(path)
		if err != nil {
			return nil, fmt.Errorf("bootstrap: store open failed: %w", err)
		}
		return &Result{Store: st}, nil
	}
	return nil, boterr.Errorf(boterr.CodeStoreBackendInvalid, "bootstrap: unknown storage backend %q", cfg.Storage.Backend)
}
