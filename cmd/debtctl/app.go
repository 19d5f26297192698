package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"

	"github.com/mmynk/debtledger/internal/backup"
	"github.com/mmynk/debtledger/internal/config"
	"github.com/mmynk/debtledger/internal/ledger"
	"github.com/mmynk/debtledger/internal/storage/sqlite"
)

var dbPath = flag.String("db", config.Load().DBPath, "Path to the SQLite database (DB_PATH)")

// app is the ledger opened over the database file.
type app struct {
	store    *sqlite.SQLiteStore
	settings *config.Settings
	ledger   *ledger.Ledger
	backup   *backup.Service
}

func openApp(ctx context.Context) (*app, error) {
	cfg := config.Load()
	store, err := sqlite.New(*dbPath)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", *dbPath, err)
	}

	logger := slog.Default()
	settings := config.NewSettings(ctx, store, logger)
	l := ledger.New(ctx, store, settings, ledger.Options{
		Logger:              logger,
		StrictContactDedupe: cfg.StrictContactDedupe,
	})
	b := backup.New(store, backup.Options{Validate: cfg.ValidateImports, Logger: logger}, settings, l)
	return &app{store: store, settings: settings, ledger: l, backup: b}, nil
}

func (a *app) Close() error {
	return a.store.Close()
}
