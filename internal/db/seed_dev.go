package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

type SeedDevOptions struct {
	// Code is written to the byte cells starting at address 0, followed by
	// a null terminator.
	Code string
}

// SeedDev overwrites the stored disarm code so a dev build always starts
// from a known code.
func SeedDev(ctx context.Context, db *sql.DB, opt SeedDevOptions) error {
	if opt.Code == "" {
		return nil
	}
	now := time.Now().UTC().UnixMilli()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("seed begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	cells := append([]byte(opt.Code), 0)
	for addr, v := range cells {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO eeprom_cells(addr, value, updated_at_ms)
VALUES (?, ?, ?)
ON CONFLICT(addr) DO UPDATE SET
  value = excluded.value,
  updated_at_ms = excluded.updated_at_ms;
`, addr, int(v), now); err != nil {
			return fmt.Errorf("seed code cell %d: %w", addr, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed commit: %w", err)
	}
	return nil
}
