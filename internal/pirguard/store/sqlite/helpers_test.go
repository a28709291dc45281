package sqlite_test

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"github.com/pirguard/pirguard/internal/db"
)

// openTestDB returns a migrated in-memory database private to the test.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	name := "test_" + strings.ReplaceAll(t.Name(), "/", "_")
	conn, err := db.OpenMemory(context.Background(), name)
	if err != nil {
		t.Fatalf("openTestDB: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// newTestWriter returns a db.Worker backed by conn, closed with the test.
func newTestWriter(t *testing.T, conn *sql.DB) *db.Worker {
	t.Helper()

	w := db.NewWorker(conn)
	t.Cleanup(w.Close)
	return w
}

func countRows(t *testing.T, conn *sql.DB, table string) int {
	t.Helper()

	var n int
	if err := conn.QueryRow(`SELECT COUNT(*) FROM ` + table).Scan(&n); err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return n
}
