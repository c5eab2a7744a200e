package history

import (
	"path/filepath"
	"testing"
	"time"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "nested", "history.db"))
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestRecorder_QueryHistory(t *testing.T) {
	store := newStore(t)

	rec, err := store.Start(NewSession("alice", "local"))
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	entries := []QueryRecord{
		{Target: "root@localhost:3307", Database: "app", Query: "SELECT 1", ExecutionTimeMs: 3},
		{Target: "root@localhost:3307", Query: "DROP TABLE nope", Error: "no such table"},
		{Target: "root@localhost:3307", Database: "app", Query: "SELECT 2", RowsAffected: 0},
		{Target: "root@localhost:3307", Database: "app", Query: "SELECT 1"},
	}
	for _, e := range entries {
		if err := rec.RecordQuery(e); err != nil {
			t.Fatalf("RecordQuery failed: %v", err)
		}
	}

	all, err := store.ListQueryHistory(rec.SessionID(), time.Time{}, 0)
	if err != nil {
		t.Fatalf("ListQueryHistory failed: %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("expected 4 records, got %d", len(all))
	}
	if all[0].Query != "SELECT 1" || all[0].SessionID != rec.SessionID() {
		t.Errorf("newest record = %+v", all[0])
	}
	if all[2].Error != "no such table" || all[2].Database != "" {
		t.Errorf("failed record = %+v", all[2])
	}

	recent, err := rec.Recent(10)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	want := []string{"SELECT 1", "SELECT 2"}
	if len(recent) != len(want) {
		t.Fatalf("Recent = %v, want %v", recent, want)
	}
	for i := range want {
		if recent[i] != want[i] {
			t.Errorf("Recent[%d] = %q, want %q", i, recent[i], want[i])
		}
	}

	if err := rec.End(); err != nil {
		t.Errorf("End failed: %v", err)
	}
}

func TestRecorder_Exchanges(t *testing.T) {
	store := newStore(t)
	rec, err := store.Start(NewSession("", "10.0.0.1:5000"))
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	err = rec.RecordExchange(ExchangeRecord{
		Database:    "app",
		Table:       "t",
		Request:     "find rows with empty names",
		SQL:         "SELECT * FROM t WHERE name = ''",
		Explanation: "filters on name",
	})
	if err != nil {
		t.Fatalf("RecordExchange failed: %v", err)
	}

	got, err := store.ListExchanges(5)
	if err != nil {
		t.Fatalf("ListExchanges failed: %v", err)
	}
	if len(got) != 1 || got[0].SQL != "SELECT * FROM t WHERE name = ''" || got[0].Error != "" {
		t.Errorf("unexpected exchanges %+v", got)
	}
}

func TestNilRecorder(t *testing.T) {
	var rec *Recorder
	if err := rec.RecordQuery(QueryRecord{Query: "SELECT 1"}); err != nil {
		t.Errorf("nil recorder should ignore records: %v", err)
	}
	if rec.SessionID() != "" {
		t.Error("nil recorder has no session")
	}
	if recent, err := rec.Recent(5); err != nil || recent != nil {
		t.Errorf("Recent() = %v, %v", recent, err)
	}
}

func TestSession_DisplayName(t *testing.T) {
	s := NewSession("", "")
	if len(s.DisplayName()) != len("guest-")+8 {
		t.Errorf("DisplayName() = %q", s.DisplayName())
	}
	if NewSession("bob", "").DisplayName() != "bob" {
		t.Error("named session should use its user name")
	}
}
