package server

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/johan-st/sqlhelper/internal/history"
	"go.uber.org/zap"
)

// Session represents an active SSH session. Each one gets its own workbench;
// nothing but the history store is shared between sessions.
type Session struct {
	ID           string
	User         *Identity
	RemoteAddr   string
	StartTime    time.Time
	LastActivity time.Time

	// Recorder is nil when history is disabled.
	Recorder *history.Recorder

	mu      sync.RWMutex
	closers []func()
}

// Touch updates the last activity time.
func (s *Session) Touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.LastActivity = time.Now()
}

// Duration returns how long the session has been active.
func (s *Session) Duration() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return time.Since(s.StartTime)
}

// IdleTime returns how long since the last activity.
func (s *Session) IdleTime() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return time.Since(s.LastActivity)
}

// OnClose registers fn to run when the session ends, most recent first.
func (s *Session) OnClose(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closers = append(s.closers, fn)
}

func (s *Session) close() {
	s.mu.Lock()
	closers := s.closers
	s.closers = nil
	s.mu.Unlock()

	for i := len(closers) - 1; i >= 0; i-- {
		closers[i]()
	}
}

// SessionManager manages active sessions.
type SessionManager struct {
	sessions map[string]*Session
	store    *history.Store
	logger   *zap.Logger
	mu       sync.RWMutex
}

// NewSessionManager creates a new session manager. store may be nil.
func NewSessionManager(store *history.Store, logger *zap.Logger) *SessionManager {
	return &SessionManager{
		sessions: make(map[string]*Session),
		store:    store,
		logger:   logger,
	}
}

// CreateSession creates and registers a new session.
func (sm *SessionManager) CreateSession(user *Identity, remoteAddr string) *Session {
	now := time.Now()
	session := &Session{
		ID:           uuid.NewString(),
		User:         user,
		RemoteAddr:   remoteAddr,
		StartTime:    now,
		LastActivity: now,
	}

	if sm.store != nil {
		hs := history.NewSession(user.Name, remoteAddr)
		hs.ID = session.ID
		rec, err := sm.store.Start(hs)
		if err != nil {
			// History is not critical.
			sm.logger.Warn("failed to record session", zap.String("session", session.ID), zap.Error(err))
		} else {
			session.Recorder = rec
		}
	}

	sm.mu.Lock()
	sm.sessions[session.ID] = session
	sm.mu.Unlock()
	return session
}

// GetSession returns a session by ID.
func (sm *SessionManager) GetSession(id string) *Session {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.sessions[id]
}

// EndSession runs the session's close hooks and forgets it.
func (sm *SessionManager) EndSession(id string) {
	sm.mu.Lock()
	session := sm.sessions[id]
	delete(sm.sessions, id)
	sm.mu.Unlock()

	if session == nil {
		return
	}
	session.close()
	if err := session.Recorder.End(); err != nil {
		sm.logger.Warn("failed to end session record", zap.String("session", id), zap.Error(err))
	}
}

// ListActiveSessions returns all active sessions.
func (sm *SessionManager) ListActiveSessions() []*Session {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	sessions := make([]*Session, 0, len(sm.sessions))
	for _, s := range sm.sessions {
		sessions = append(sessions, s)
	}
	return sessions
}

// Count returns the number of active sessions.
func (sm *SessionManager) Count() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.sessions)
}
