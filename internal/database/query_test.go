package database

import (
	"context"
	"database/sql"
	"path/filepath"
	"strings"
	"testing"

	"github.com/johan-st/sqlhelper/internal/testutil"
	"go.uber.org/zap"
)

func openPeople(t *testing.T, rows ...string) *Connection {
	t.Helper()

	setup := append([]string{testutil.PeopleTable}, rows...)
	path := testutil.SQLiteDB(t, "people.db", setup...)

	conn, err := Open(context.Background(), testutil.SQLiteConfig(path).Database, zap.NewNop())
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// TestSQLInjection_QuoteIdentifier tests that identifier quoting prevents injection.
func TestSQLInjection_QuoteIdentifier(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "simple name",
			input:    "users",
			expected: `"users"`,
		},
		{
			name:     "name with double quotes",
			input:    `users"; DROP TABLE users; --`,
			expected: `"users""; DROP TABLE users; --"`,
		},
		{
			name:     "empty name",
			input:    "",
			expected: `""`,
		},
		{
			name:     "name with backticks",
			input:    "`users`",
			expected: "\"`users`\"",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := quoteIdentifier(tt.input)
			if got != tt.expected {
				t.Errorf("quoteIdentifier(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestQuoteBacktick(t *testing.T) {
	if got := quoteBacktick("a`b"); got != "`a``b`" {
		t.Errorf("quoteBacktick = %q", got)
	}
}

func TestRun_ShapeComesFromDriver(t *testing.T) {
	conn := openPeople(t, "INSERT INTO t (id, name) VALUES (1, 'a'), (2, 'b')")
	ctx := context.Background()

	tests := []struct {
		name     string
		query    string
		columns  []string
		affected int64
	}{
		{"select", "SELECT name FROM t ORDER BY id", []string{"name"}, 0},
		{"comment first", "-- newest first\nSELECT id FROM t", []string{"id"}, 0},
		{"returning on its own line", "INSERT INTO t (id, name) VALUES (3, 'c')\nRETURNING id, name", []string{"id", "name"}, 0},
		{"pragma", "PRAGMA table_info(t)", []string{"cid", "name", "type", "notnull", "dflt_value", "pk"}, 0},
		{"update", "UPDATE t SET name = 'z' WHERE id < 3", nil, 2},
		{"delete", "DELETE FROM t WHERE id = 3", nil, 1},
		{"ddl", "CREATE TABLE selections (id INT)", nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := conn.Run(ctx, tt.query)
			if err != nil {
				t.Fatalf("Run(%q) failed: %v", tt.query, err)
			}
			if len(tt.columns) > 0 {
				if !res.HasColumns() || strings.Join(res.Columns, ",") != strings.Join(tt.columns, ",") {
					t.Errorf("columns = %v, want %v", res.Columns, tt.columns)
				}
				return
			}
			if res.HasColumns() {
				t.Errorf("unexpected columns %v", res.Columns)
			}
			if res.RowsAffected != tt.affected {
				t.Errorf("RowsAffected = %d, want %d", res.RowsAffected, tt.affected)
			}
		})
	}
}

func TestRun_ErrorSurfaces(t *testing.T) {
	conn := openPeople(t, "INSERT INTO t (id, name) VALUES (1, 'a')")
	if _, err := conn.Run(context.Background(), "INSERT INTO t (id, name) VALUES (1, 'dup')"); err == nil {
		t.Error("expected constraint error")
	}
}

func TestSQLite_Browse(t *testing.T) {
	conn := openPeople(t, "INSERT INTO t (id, name) VALUES (7, 'x')", "CREATE TABLE other (v REAL)")
	ctx := context.Background()

	dbs, err := conn.ListDatabases(ctx)
	if err != nil {
		t.Fatalf("ListDatabases failed: %v", err)
	}
	if len(dbs) != 1 || dbs[0] != "main" {
		t.Fatalf("ListDatabases = %v, want [main]", dbs)
	}

	tables, err := conn.ListTables(ctx, "main")
	if err != nil {
		t.Fatalf("ListTables failed: %v", err)
	}
	if len(tables) != 2 || tables[0] != "other" || tables[1] != "t" {
		t.Errorf("ListTables = %v, want [other t]", tables)
	}

	cols, err := conn.Describe(ctx, "main", "t")
	if err != nil {
		t.Fatalf("Describe failed: %v", err)
	}
	if len(cols) != 2 {
		t.Fatalf("expected 2 columns, got %d", len(cols))
	}
	if cols[0].Field != "id" || cols[0].Key != "PRI" || cols[0].Nullable() {
		t.Errorf("unexpected id column %+v", cols[0])
	}
	if cols[1].Field != "name" || cols[1].Type != "TEXT" || !cols[1].Nullable() {
		t.Errorf("unexpected name column %+v", cols[1])
	}
	if got := cols[1].Cells(); len(got) != len(StructureColumns) || got[4] != "NULL" {
		t.Errorf("Cells() = %v", got)
	}

	if _, err := conn.Describe(ctx, "main", "missing"); err == nil {
		t.Error("expected error describing a missing table")
	}

	result, err := conn.SelectAll(ctx, "main", "t")
	if err != nil {
		t.Fatalf("SelectAll failed: %v", err)
	}
	if !result.HasColumns() || len(result.Rows) != 1 {
		t.Fatalf("unexpected result %+v", result)
	}
	if got := result.Strings()[0]; got[0] != "7" || got[1] != "x" {
		t.Errorf("row = %v", got)
	}
}

func TestSQLite_AttachesDirectory(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"alpha.db", "beta-2.db", "notes.txt"} {
		db, err := sql.Open("sqlite", filepath.Join(dir, name))
		if err != nil {
			t.Fatalf("failed to create %s: %v", name, err)
		}
		testutil.MustExec(t, db, "CREATE TABLE items (id INTEGER)")
		db.Close()
	}

	cfg := testutil.SQLiteConfig(dir).Database
	conn, err := Open(context.Background(), cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer conn.Close()

	dbs, err := conn.ListDatabases(context.Background())
	if err != nil {
		t.Fatalf("ListDatabases failed: %v", err)
	}
	if len(dbs) != 2 || dbs[0] != "main" || dbs[1] != "beta_2" {
		t.Fatalf("ListDatabases = %v, want [main beta_2]", dbs)
	}

	tables, err := conn.ListTables(context.Background(), "beta_2")
	if err != nil || len(tables) != 1 || tables[0] != "items" {
		t.Errorf("ListTables(beta_2) = %v, %v", tables, err)
	}
}

func TestStatements_AgainstSQLite(t *testing.T) {
	conn := openPeople(t)
	ctx := context.Background()
	d := conn.Dialect()

	malicious := "Robert'); DROP TABLE t; --"
	ins, err := BuildInsert(d, "main", "t", []Assignment{{"id", "1"}, {"name", malicious}})
	if err != nil {
		t.Fatalf("BuildInsert failed: %v", err)
	}
	res, err := conn.Exec(ctx, "main", ins)
	if err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	if res.RowsAffected != 1 {
		t.Errorf("RowsAffected = %d, want 1", res.RowsAffected)
	}

	// The value is stored literally and the table survives.
	got, err := conn.Select(ctx, "SELECT name FROM t WHERE id = ?", 1)
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if len(got.Rows) != 1 || got.Rows[0][0] != malicious {
		t.Fatalf("stored value = %v", got.Rows)
	}

	upd, _ := BuildUpdate(d, "main", "t", []Assignment{{"id", "1"}, {"name", "y"}}, "id", int64(1))
	if res, err = conn.Exec(ctx, "main", upd); err != nil || res.RowsAffected != 1 {
		t.Fatalf("update: %v, %+v", err, res)
	}

	del, _ := BuildDelete(d, "main", "t", "id", int64(1))
	if res, err = conn.Exec(ctx, "main", del); err != nil || res.RowsAffected != 1 {
		t.Fatalf("delete: %v, %+v", err, res)
	}
}

func TestConnection_ClosedIsAnError(t *testing.T) {
	conn := openPeople(t)
	if err := conn.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := conn.Close(); err != nil {
		t.Errorf("second Close should be a no-op, got %v", err)
	}
	if _, err := conn.Run(context.Background(), "SELECT 1"); err == nil {
		t.Error("expected error on closed connection")
	}
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{nil, "NULL"},
		{"a", "a"},
		{[]byte("b"), "b"},
		{int64(7), "7"},
		{2.5, "2.5"},
		{true, "true"},
	}
	for _, tt := range tests {
		if got := FormatValue(tt.in); got != tt.want {
			t.Errorf("FormatValue(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
