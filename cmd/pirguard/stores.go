package main

import (
	"context"
	"fmt"
	"log"

	"github.com/pirguard/pirguard/internal/config"
	"github.com/pirguard/pirguard/internal/db"
	"github.com/pirguard/pirguard/internal/pirguard/store"
	"github.com/pirguard/pirguard/internal/pirguard/store/memory"
	sqlitestore "github.com/pirguard/pirguard/internal/pirguard/store/sqlite"
)

type stores struct {
	events store.EventStore
	codes  store.ByteStore
	close  func()
}

// openStores opens the configured backend and makes sure a disarm code
// is present. In dev the configured code always wins.
func openStores(ctx context.Context, cfg config.Config, logger *log.Logger) (*stores, error) {
	dev := cfg.Env == "dev"

	if cfg.Store == "memory" {
		s := &stores{
			events: memory.NewEventStore(),
			codes:  memory.NewByteStore(),
			close:  func() {},
		}
		if _, err := store.EnsureCode(ctx, s.codes, cfg.Code, true); err != nil {
			return nil, fmt.Errorf("seed code: %w", err)
		}
		return s, nil
	}

	conn, err := db.Open(ctx, db.Config{Path: cfg.DBPath, Env: cfg.Env})
	if err != nil {
		return nil, err
	}
	if dev {
		if err := db.SeedDev(ctx, conn, db.SeedDevOptions{Code: cfg.Code}); err != nil {
			_ = conn.Close()
			return nil, err
		}
	}

	writer := db.NewWorker(conn)
	s := &stores{
		events: sqlitestore.NewEventStore(conn, writer),
		codes:  sqlitestore.NewByteStore(conn, writer),
		close: func() {
			writer.Close()
			_ = conn.Close()
		},
	}
	wrote, err := store.EnsureCode(ctx, s.codes, cfg.Code, false)
	if err != nil {
		s.close()
		return nil, fmt.Errorf("seed code: %w", err)
	}
	if wrote {
		logger.Printf("byte store was blank, wrote configured code")
	}
	logger.Printf("sqlite store at %s (env=%s)", cfg.DBPath, cfg.Env)
	return s, nil
}
