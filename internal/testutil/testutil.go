// Package testutil provides test utilities for sqlhelper tests.
package testutil

import (
	"bytes"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/johan-st/sqlhelper/internal/config"
	_ "modernc.org/sqlite"
)

// SQLiteDB creates a sqlite file in a temp dir and runs the setup statements
// against it. Returns the file path.
func SQLiteDB(t *testing.T, name string, setup ...string) string {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), name)

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("failed to create db: %v", err)
	}
	defer db.Close()

	for _, stmt := range setup {
		MustExec(t, db, stmt)
	}

	t.Cleanup(func() {
		os.Remove(dbPath + "-shm")
		os.Remove(dbPath + "-wal")
	})

	return dbPath
}

// SQLiteConfig returns a config that connects to the sqlite file(s) at path.
func SQLiteConfig(path string) config.Config {
	cfg := config.DefaultConfig()
	cfg.Database = config.DatabaseConfig{
		Driver:         "sqlite",
		Path:           path,
		ConnectTimeout: "5s",
	}
	cfg.History.Enabled = false
	return cfg
}

// PeopleTable is the two-column table used across workbench tests.
const PeopleTable = "CREATE TABLE t (id INTEGER PRIMARY KEY, name TEXT)"

// OutputCapture is a helper for capturing CLI output.
type OutputCapture struct {
	Out bytes.Buffer
	Err bytes.Buffer
}

// Stdout returns captured stdout as string.
func (c *OutputCapture) Stdout() string {
	return c.Out.String()
}

// Stderr returns captured stderr as string.
func (c *OutputCapture) Stderr() string {
	return c.Err.String()
}

// MustExec executes SQL or fails the test.
func MustExec(t *testing.T, db *sql.DB, query string, args ...any) {
	t.Helper()
	if _, err := db.Exec(query, args...); err != nil {
		t.Fatalf("MustExec failed: %v\nQuery: %s", err, query)
	}
}

// MustQueryRow executes a query and scans the first row into dest.
func MustQueryRow(t *testing.T, path, query string, dest ...any) {
	t.Helper()

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	defer db.Close()

	if err := db.QueryRow(query).Scan(dest...); err != nil {
		t.Fatalf("MustQueryRow failed: %v\nQuery: %s", err, query)
	}
}
