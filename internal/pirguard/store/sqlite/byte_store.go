package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	dbpkg "github.com/pirguard/pirguard/internal/db"
	"github.com/pirguard/pirguard/internal/pirguard/store"
)

// ByteStore keeps one row per written cell in eeprom_cells.
type ByteStore struct {
	db     *sql.DB
	writer *dbpkg.Worker
}

func NewByteStore(db *sql.DB, writer *dbpkg.Worker) *ByteStore {
	return &ByteStore{db: db, writer: writer}
}

func (s *ByteStore) ReadCell(ctx context.Context, addr uint16) (byte, error) {
	if err := store.CheckAddr(addr); err != nil {
		return 0, err
	}
	var v int
	err := s.db.QueryRowContext(ctx, `
SELECT value FROM eeprom_cells WHERE addr = ?;
`, int(addr)).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Erased, nil
	}
	if err != nil {
		return 0, fmt.Errorf("ReadCell %d: %w", addr, err)
	}
	return byte(v), nil
}

func (s *ByteStore) WriteCell(ctx context.Context, addr uint16, b byte) error {
	if err := store.CheckAddr(addr); err != nil {
		return err
	}
	now := time.Now().UTC().UnixMilli()
	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO eeprom_cells(addr, value, updated_at_ms)
VALUES (?, ?, ?)
ON CONFLICT(addr) DO UPDATE SET
  value = excluded.value,
  updated_at_ms = excluded.updated_at_ms;
`, int(addr), int(b), now); err != nil {
			return fmt.Errorf("WriteCell %d: %w", addr, err)
		}
		return nil
	})
}
