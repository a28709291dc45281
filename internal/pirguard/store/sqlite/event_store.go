package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	dbpkg "github.com/pirguard/pirguard/internal/db"
	"github.com/pirguard/pirguard/internal/pirguard/store"
	"github.com/pirguard/pirguard/internal/pirguard/types"
)

type EventStore struct {
	db     *sql.DB
	writer *dbpkg.Worker
}

func NewEventStore(db *sql.DB, writer *dbpkg.Worker) *EventStore {
	return &EventStore{db: db, writer: writer}
}

func (s *EventStore) RecordEvent(ctx context.Context, rec store.SecurityEventRecord) error {
	if rec.At.IsZero() {
		rec.At = time.Now().UTC()
	}
	atMs := rec.At.UTC().UnixMilli()

	var delivered int
	if rec.Delivered {
		delivered = 1
	}

	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO security_events(
  node, tag, payload, state, delivered, reason, at_ms
) VALUES (?, ?, ?, ?, ?, ?, ?);
`,
			rec.Node, string(rune(rec.Tag)), rec.Payload, int(rec.State),
			delivered, rec.Reason, atMs,
		); err != nil {
			return fmt.Errorf("RecordEvent insert: %w", err)
		}
		return nil
	})
}

// Recent reads outside the writer queue.
func (s *EventStore) Recent(ctx context.Context, limit int) ([]store.SecurityEventRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT node, tag, payload, state, delivered, reason, at_ms
FROM security_events
ORDER BY at_ms DESC, event_id DESC
LIMIT ?;
`, limit)
	if err != nil {
		return nil, fmt.Errorf("Recent query: %w", err)
	}
	defer rows.Close()

	var out []store.SecurityEventRecord
	for rows.Next() {
		var (
			rec       store.SecurityEventRecord
			tag       string
			state     int
			delivered int
			atMs      int64
		)
		if err := rows.Scan(&rec.Node, &tag, &rec.Payload, &state, &delivered, &rec.Reason, &atMs); err != nil {
			return nil, fmt.Errorf("Recent scan: %w", err)
		}
		if tag != "" {
			rec.Tag = types.EventTag(tag[0])
		}
		rec.State = types.SecurityState(state)
		rec.Delivered = delivered != 0
		rec.At = time.UnixMilli(atMs).UTC()
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("Recent rows: %w", err)
	}
	return out, nil
}

// PruneOlderThan deletes events recorded before cutoff and returns the
// number of rows deleted.
func (s *EventStore) PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	cutoffMs := cutoff.UTC().UnixMilli()

	var deleted int64
	err := s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
DELETE FROM security_events
WHERE at_ms < ?;
`, cutoffMs)
		if err != nil {
			return fmt.Errorf("PruneOlderThan: %w", err)
		}
		deleted, _ = res.RowsAffected()
		return nil
	})
	return deleted, err
}
