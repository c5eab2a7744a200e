package cli

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/johan-st/sqlhelper/internal/testutil"
	"go.uber.org/zap/zaptest"
)

// testEnv runs commands the way an SSH session does, against a sqlite file
// holding t(id, name) with two rows and sales(month, revenue).
type testEnv struct {
	t      *testing.T
	dbPath string
	sess   Session
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	path := testutil.SQLiteDB(t, "cli.db",
		testutil.PeopleTable,
		"INSERT INTO t (id, name) VALUES (1, 'ada'), (2, 'bob')",
		"CREATE TABLE sales (month INTEGER, revenue REAL)",
		"INSERT INTO sales VALUES (3, 30), (1, 10), (2, 20)",
	)
	return &testEnv{
		t:      t,
		dbPath: path,
		sess:   Session{Config: testutil.SQLiteConfig(path), Logger: zaptest.NewLogger(t)},
	}
}

func (e *testEnv) run(args ...string) (*testutil.OutputCapture, int) {
	e.t.Helper()
	capture := &testutil.OutputCapture{}
	code := Run(context.Background(), e.sess, "test", args, &capture.Out, &capture.Err)
	return capture, code
}

func (e *testEnv) mustRun(args ...string) string {
	e.t.Helper()
	out, code := e.run(args...)
	if code != 0 {
		e.t.Fatalf("%v exited %d: %s", args, code, out.Stderr())
	}
	return out.Stdout()
}

func (e *testEnv) count(query string) int {
	e.t.Helper()
	var n int
	testutil.MustQueryRow(e.t, e.dbPath, query, &n)
	return n
}

func TestListing(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"databases", []string{"databases"}, "main\n"},
		{"tables", []string{"tables", "main"}, "sales\nt\n"},
		{"tables json", []string{"tables", "main", "--format", "json"}, "[\n  \"sales\",\n  \"t\"\n]\n"},
		{"tables csv", []string{"-f", "csv", "tables", "main"}, "table\nsales\nt\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := env.mustRun(tt.args...); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTables_UnknownDatabase(t *testing.T) {
	env := newTestEnv(t)

	out, code := env.run("tables", "nope")
	if code != 1 {
		t.Fatalf("expected exit 1, got %d", code)
	}
	if !strings.Contains(out.Stderr(), `unknown database "nope"`) {
		t.Errorf("unexpected stderr: %s", out.Stderr())
	}
}

func TestShow(t *testing.T) {
	env := newTestEnv(t)

	out := env.mustRun("show", "main", "t")
	for _, want := range []string{"id", "name", "ada", "bob", "(2 rows)"} {
		if !strings.Contains(out, want) {
			t.Errorf("table output missing %q:\n%s", want, out)
		}
	}

	var rows []map[string]string
	if err := json.Unmarshal([]byte(env.mustRun("show", "main", "t", "-f", "json")), &rows); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(rows) != 2 || rows[0]["name"] != "ada" || rows[1]["id"] != "2" {
		t.Errorf("unexpected rows: %v", rows)
	}
}

func TestShow_EmptyTable(t *testing.T) {
	env := newTestEnv(t)
	env.mustRun("query", "DELETE FROM t")

	if got := env.mustRun("show", "main", "t"); got != "table is empty\n" {
		t.Errorf("got %q", got)
	}
}

func TestDescribe(t *testing.T) {
	env := newTestEnv(t)

	out := env.mustRun("describe", "main", "t", "-f", "csv")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header and 2 columns, got:\n%s", out)
	}
	if !strings.HasPrefix(lines[1], "id,INTEGER,NO,PRI") {
		t.Errorf("unexpected id row %q", lines[1])
	}
}

func TestQuery(t *testing.T) {
	env := newTestEnv(t)

	if got := env.mustRun("query", "-f", "csv", "SELECT count(*) AS n FROM t"); got != "n\n2\n" {
		t.Errorf("got %q", got)
	}

	out := env.mustRun("query", "UPDATE t SET name = 'x'")
	if !strings.Contains(out, "2 rows affected") {
		t.Errorf("unexpected status line %q", out)
	}

	_, code := env.run("query", "SELECT * FROM missing")
	if code != 1 {
		t.Errorf("expected failure for a missing table")
	}

	_, code = env.run("query", "--database", "main", "SELECT 1")
	if code != 1 {
		t.Errorf("expected --database without --table to fail")
	}
}

func TestInsert(t *testing.T) {
	env := newTestEnv(t)

	out := env.mustRun("insert", "main", "t", "id=3", "name=cy", "--dry-run")
	if strings.TrimSpace(out) != "INSERT INTO t (id, name) VALUES ('3', 'cy')" {
		t.Errorf("unexpected preview %q", out)
	}
	if n := env.count("SELECT count(*) FROM t"); n != 2 {
		t.Fatalf("dry run inserted a row")
	}

	env.mustRun("insert", "main", "t", "id=3", "name=cy")
	if n := env.count("SELECT count(*) FROM t WHERE name = 'cy'"); n != 1 {
		t.Errorf("expected inserted row, got %d", n)
	}

	if _, code := env.run("insert", "main", "t", "nope=1"); code != 1 {
		t.Error("expected unknown column to fail")
	}
	if _, code := env.run("insert", "main", "t", "id"); code != 1 {
		t.Error("expected malformed assignment to fail")
	}
}

func TestUpdate(t *testing.T) {
	env := newTestEnv(t)

	out := env.mustRun("update", "main", "t", "1", "name=bee", "--dry-run")
	if strings.TrimSpace(out) != "UPDATE t SET id='2', name='bee' WHERE id='2'" {
		t.Errorf("unexpected preview %q", out)
	}

	env.mustRun("update", "main", "t", "1", "name=bee")
	if n := env.count("SELECT count(*) FROM t WHERE id = 2 AND name = 'bee'"); n != 1 {
		t.Error("row was not updated")
	}

	out = env.mustRun("update", "main", "t", "0", "id=10", "--key", "name", "--dry-run")
	if !strings.HasSuffix(strings.TrimSpace(out), "WHERE name='ada'") {
		t.Errorf("expected name key, got %q", out)
	}

	if _, code := env.run("update", "main", "t", "9", "name=x"); code != 1 {
		t.Error("expected out of range row to fail")
	}
	if _, code := env.run("update", "main", "t", "-1", "name=x"); code != 1 {
		t.Error("expected negative row to fail")
	}
}

func TestDelete_RequiresConfirmation(t *testing.T) {
	env := newTestEnv(t)

	out, code := env.run("delete", "main", "t", "0")
	if code != 1 {
		t.Fatalf("expected unconfirmed delete to fail")
	}
	if strings.TrimSpace(out.Stdout()) != "DELETE FROM t WHERE id='1'" {
		t.Errorf("unexpected preview %q", out.Stdout())
	}
	if n := env.count("SELECT count(*) FROM t"); n != 2 {
		t.Fatal("unconfirmed delete removed a row")
	}

	env.mustRun("delete", "main", "t", "0", "--yes")
	if n := env.count("SELECT count(*) FROM t WHERE id = 1"); n != 0 {
		t.Error("row was not deleted")
	}
}

func TestDelete_KeyColumn(t *testing.T) {
	env := newTestEnv(t)

	out, code := env.run("delete", "main", "t", "1", "--key", "name")
	if code != 1 {
		t.Fatalf("expected unconfirmed delete to fail")
	}
	if strings.TrimSpace(out.Stdout()) != "DELETE FROM t WHERE name='bob'" {
		t.Errorf("unexpected preview %q", out.Stdout())
	}

	if _, code := env.run("delete", "main", "t", "1", "--key", "nope", "--yes"); code != 1 {
		t.Error("expected unknown key column to fail")
	}

	env.mustRun("delete", "main", "t", "1", "-k", "name", "-y")
	if n := env.count("SELECT count(*) FROM t WHERE name = 'bob'"); n != 0 {
		t.Error("row was not deleted")
	}
	if n := env.count("SELECT count(*) FROM t"); n != 1 {
		t.Error("delete removed the wrong rows")
	}
}

func TestChart(t *testing.T) {
	env := newTestEnv(t)

	out := env.mustRun("chart", "main", "sales", "--x", "month", "--y", "revenue", "--sort", "asc")
	if !strings.Contains(out, "Bar - revenue vs month") {
		t.Errorf("missing title:\n%s", out)
	}

	tests := []struct {
		name string
		args []string
	}{
		{"missing axis", []string{"chart", "main", "sales", "--x", "month"}},
		{"bad kind", []string{"chart", "main", "sales", "--x", "month", "--y", "revenue", "--kind", "radar"}},
		{"bad sort", []string{"chart", "main", "sales", "--x", "month", "--y", "revenue", "--sort", "up"}},
		{"unknown column", []string{"chart", "main", "sales", "--x", "month", "--y", "profit"}},
		{"html over ssh", []string{"chart", "main", "sales", "--x", "month", "--y", "revenue", "--out", "c.html"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, code := env.run(tt.args...); code != 1 {
				t.Errorf("expected failure")
			}
		})
	}
}

func TestChart_FromQuery(t *testing.T) {
	env := newTestEnv(t)

	out := env.mustRun("chart", "main", "sales",
		"--query", "SELECT month, revenue * 2 AS doubled FROM sales",
		"--x", "month", "--y", "doubled", "--kind", "pie")
	if !strings.Contains(out, "Pie - doubled vs month") {
		t.Errorf("missing title:\n%s", out)
	}
}

func TestAsk_WithoutKey(t *testing.T) {
	env := newTestEnv(t)

	out, code := env.run("ask", "main", "t", "count the rows")
	if code != 1 {
		t.Fatalf("expected failure without an API key")
	}
	if !strings.Contains(out.Stderr(), "API key") {
		t.Errorf("unexpected stderr %q", out.Stderr())
	}
}

func TestRemoteSurface(t *testing.T) {
	env := newTestEnv(t)

	// Connection flags and serve are local only.
	if _, code := env.run("--path", "/tmp/other.db", "databases"); code != 1 {
		t.Error("expected --path to be rejected")
	}
	if _, code := env.run("serve"); code != 1 {
		t.Error("expected serve to be unavailable")
	}
	if _, code := env.run("history"); code != 1 {
		t.Error("expected history to fail without a store")
	}

	out := env.mustRun()
	if !strings.Contains(out, "Available Commands") {
		t.Errorf("expected help without a command:\n%s", out)
	}
}

func TestVersion(t *testing.T) {
	env := newTestEnv(t)

	var v map[string]string
	if err := json.Unmarshal([]byte(env.mustRun("version", "-f", "json")), &v); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if v["version"] != "test" {
		t.Errorf("unexpected version %v", v)
	}
}

func TestParseAssignments(t *testing.T) {
	got, err := parseAssignments([]string{"a=1", "b=", "c=x=y"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got["a"] != "1" || got["b"] != "" || got["c"] != "x=y" {
		t.Errorf("unexpected assignments %v", got)
	}

	for _, bad := range []string{"a", "=1"} {
		if _, err := parseAssignments([]string{bad}); err == nil {
			t.Errorf("expected %q to fail", bad)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("SELECT *\n  FROM t", 20); got != "SELECT * FROM t" {
		t.Errorf("got %q", got)
	}
	if got := truncate("abcdefghij", 8); got != "abcde..." {
		t.Errorf("got %q", got)
	}
}
