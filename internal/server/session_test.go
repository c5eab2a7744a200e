package server

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/johan-st/sqlhelper/internal/history"
	"go.uber.org/zap/zaptest"
)

func TestSessionManager_Lifecycle(t *testing.T) {
	store, err := history.NewStore(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	defer store.Close()

	sm := NewSessionManager(store, zaptest.NewLogger(t))
	sess := sm.CreateSession(&Identity{Name: "alice"}, "127.0.0.1:5000")

	if sess.Recorder == nil {
		t.Fatal("expected a history recorder")
	}
	if got := sess.Recorder.SessionID(); got != sess.ID {
		t.Errorf("recorder session = %q, want %q", got, sess.ID)
	}
	if sm.GetSession(sess.ID) != sess || sm.Count() != 1 {
		t.Fatal("session not registered")
	}

	var order []string
	sess.OnClose(func() { order = append(order, "first") })
	sess.OnClose(func() { order = append(order, "second") })

	sm.EndSession(sess.ID)
	if sm.Count() != 0 {
		t.Errorf("expected no sessions, got %d", sm.Count())
	}
	if strings.Join(order, ",") != "second,first" {
		t.Errorf("close order = %v", order)
	}

	// Ending twice is harmless.
	sm.EndSession(sess.ID)
}

func TestSessionManager_WithoutHistory(t *testing.T) {
	sm := NewSessionManager(nil, zaptest.NewLogger(t))
	sess := sm.CreateSession(newGuest(""), "127.0.0.1:5001")

	if sess.Recorder != nil {
		t.Error("expected no recorder without a store")
	}
	if !sess.User.Guest || !strings.HasPrefix(sess.User.Name, "guest-") {
		t.Errorf("unexpected guest identity %+v", sess.User)
	}
	if len(sm.ListActiveSessions()) != 1 {
		t.Error("expected one active session")
	}
	sm.EndSession(sess.ID)
}

func TestIdentity_DisplayName(t *testing.T) {
	var nobody *Identity
	if nobody.DisplayName() != "unknown" {
		t.Errorf("nil identity = %q", nobody.DisplayName())
	}
	if (&Identity{Name: "bob"}).DisplayName() != "bob" {
		t.Error("expected bob")
	}
}
