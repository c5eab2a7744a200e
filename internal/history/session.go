package history

import (
	"time"

	"github.com/google/uuid"
)

// Session is one run of the workbench: a local process or an SSH session.
type Session struct {
	ID           string
	UserName     string // Authenticated SSH user, or the OS user locally
	RemoteAddr   string
	CreatedAt    time.Time
	LastActiveAt time.Time
	IsActive     bool
}

// QueryRecord represents a statement in the history.
type QueryRecord struct {
	ID              int64
	SessionID       string
	Target          string
	Database        string
	Query           string
	ExecutionTimeMs int64
	RowsAffected    int64
	Error           string
	CreatedAt       time.Time
}

// ExchangeRecord represents one AI exchange in the history.
type ExchangeRecord struct {
	ID          int64
	SessionID   string
	Database    string
	Table       string
	Request     string
	SQL         string
	Explanation string
	Error       string
	CreatedAt   time.Time
}

// NewSession creates a new session with a fresh id.
func NewSession(userName, remoteAddr string) *Session {
	now := time.Now()
	return &Session{
		ID:           uuid.NewString(),
		UserName:     userName,
		RemoteAddr:   remoteAddr,
		CreatedAt:    now,
		LastActiveAt: now,
		IsActive:     true,
	}
}

// DisplayName returns the display name for the session.
func (s *Session) DisplayName() string {
	if s.UserName != "" {
		return s.UserName
	}
	return "guest-" + s.ID[:8]
}

// Recorder binds a store to one session. A nil *Recorder records nothing.
type Recorder struct {
	store   *Store
	session *Session
}

// Start registers session in store and returns a recorder for it.
func (s *Store) Start(session *Session) (*Recorder, error) {
	if err := s.CreateSession(session); err != nil {
		return nil, err
	}
	return &Recorder{store: s, session: session}, nil
}

// SessionID returns the bound session id.
func (r *Recorder) SessionID() string {
	if r == nil {
		return ""
	}
	return r.session.ID
}

// RecordQuery stamps record with the session and stores it.
func (r *Recorder) RecordQuery(record QueryRecord) error {
	if r == nil {
		return nil
	}
	record.SessionID = r.session.ID
	if err := r.store.RecordQuery(&record); err != nil {
		return err
	}
	return r.store.UpdateSessionActivity(r.session.ID)
}

// RecordExchange stamps record with the session and stores it.
func (r *Recorder) RecordExchange(record ExchangeRecord) error {
	if r == nil {
		return nil
	}
	record.SessionID = r.session.ID
	return r.store.RecordExchange(&record)
}

// Recent returns recently executed statements for query-bar recall.
func (r *Recorder) Recent(limit int) ([]string, error) {
	if r == nil {
		return nil, nil
	}
	return r.store.RecentQueries(limit)
}

// End marks the session inactive.
func (r *Recorder) End() error {
	if r == nil {
		return nil
	}
	return r.store.EndSession(r.session.ID)
}
