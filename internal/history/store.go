// Package history persists executed statements and AI exchanges so they can
// be recalled across sessions.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Store manages the history database.
type Store struct {
	db *sql.DB
}

// NewStore opens (creating if needed) the history database at path.
func NewStore(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)", path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	db.SetMaxOpenConns(1)

	store := &Store{db: db}

	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate history database: %w", err)
	}

	return store, nil
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		user_name TEXT,
		remote_addr TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		last_active_at DATETIME,
		is_active INTEGER DEFAULT 1
	);

	CREATE INDEX IF NOT EXISTS idx_sessions_created_at ON sessions(created_at);

	CREATE TABLE IF NOT EXISTS query_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT REFERENCES sessions(id),
		target TEXT,
		database_name TEXT,
		query TEXT,
		execution_time_ms INTEGER,
		rows_affected INTEGER,
		error TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_query_history_session_id ON query_history(session_id);
	CREATE INDEX IF NOT EXISTS idx_query_history_created_at ON query_history(created_at);

	CREATE TABLE IF NOT EXISTS ai_exchanges (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT REFERENCES sessions(id),
		database_name TEXT,
		table_name TEXT,
		request TEXT,
		sql_text TEXT,
		explanation TEXT,
		error TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_ai_exchanges_created_at ON ai_exchanges(created_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the store.
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateSession creates a new session record.
func (s *Store) CreateSession(session *Session) error {
	_, err := s.db.Exec(`
		INSERT INTO sessions (id, user_name, remote_addr, created_at, last_active_at, is_active)
		VALUES (?, ?, ?, ?, ?, ?)
	`, session.ID, nullString(session.UserName), session.RemoteAddr,
		session.CreatedAt, session.LastActiveAt, session.IsActive)

	return err
}

// UpdateSessionActivity updates the last active time for a session.
func (s *Store) UpdateSessionActivity(sessionID string) error {
	_, err := s.db.Exec(`
		UPDATE sessions SET last_active_at = ? WHERE id = ?
	`, time.Now(), sessionID)
	return err
}

// EndSession marks a session as inactive.
func (s *Store) EndSession(sessionID string) error {
	_, err := s.db.Exec(`
		UPDATE sessions SET is_active = 0, last_active_at = ? WHERE id = ?
	`, time.Now(), sessionID)
	return err
}

// RecordQuery records a statement execution.
func (s *Store) RecordQuery(record *QueryRecord) error {
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}
	_, err := s.db.Exec(`
		INSERT INTO query_history (session_id, target, database_name, query, execution_time_ms, rows_affected, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, record.SessionID, record.Target, nullString(record.Database), record.Query,
		record.ExecutionTimeMs, record.RowsAffected, nullString(record.Error), record.CreatedAt)

	return err
}

// ListQueryHistory lists query history, newest first. Empty filters match
// everything.
func (s *Store) ListQueryHistory(sessionID string, since time.Time, limit int) ([]*QueryRecord, error) {
	query := "SELECT id, session_id, target, database_name, query, execution_time_ms, rows_affected, error, created_at FROM query_history WHERE 1=1"
	args := make([]any, 0)

	if sessionID != "" {
		query += " AND session_id = ?"
		args = append(args, sessionID)
	}

	if !since.IsZero() {
		query += " AND created_at >= ?"
		args = append(args, since)
	}

	query += " ORDER BY id DESC"

	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*QueryRecord
	for rows.Next() {
		var record QueryRecord
		var database, errStr sql.NullString

		err := rows.Scan(&record.ID, &record.SessionID, &record.Target, &database, &record.Query,
			&record.ExecutionTimeMs, &record.RowsAffected, &errStr, &record.CreatedAt)
		if err != nil {
			return nil, err
		}

		record.Database = database.String
		record.Error = errStr.String
		records = append(records, &record)
	}

	return records, rows.Err()
}

// RecentQueries returns distinct successful statements, most recent first.
func (s *Store) RecentQueries(limit int) ([]string, error) {
	rows, err := s.db.Query(`
		SELECT query FROM query_history
		WHERE error IS NULL
		GROUP BY query
		ORDER BY MAX(id) DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var q string
		if err := rows.Scan(&q); err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

// RecordExchange records one AI request/response pair.
func (s *Store) RecordExchange(record *ExchangeRecord) error {
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}
	_, err := s.db.Exec(`
		INSERT INTO ai_exchanges (session_id, database_name, table_name, request, sql_text, explanation, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, record.SessionID, record.Database, record.Table, record.Request,
		nullString(record.SQL), nullString(record.Explanation), nullString(record.Error), record.CreatedAt)

	return err
}

// ListExchanges lists AI exchanges, newest first.
func (s *Store) ListExchanges(limit int) ([]*ExchangeRecord, error) {
	rows, err := s.db.Query(`
		SELECT id, session_id, database_name, table_name, request, sql_text, explanation, error, created_at
		FROM ai_exchanges ORDER BY id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*ExchangeRecord
	for rows.Next() {
		var record ExchangeRecord
		var sqlText, explanation, errStr sql.NullString

		err := rows.Scan(&record.ID, &record.SessionID, &record.Database, &record.Table, &record.Request,
			&sqlText, &explanation, &errStr, &record.CreatedAt)
		if err != nil {
			return nil, err
		}

		record.SQL = sqlText.String
		record.Explanation = explanation.String
		record.Error = errStr.String
		records = append(records, &record)
	}

	return records, rows.Err()
}

// nullString converts an empty string to sql.NullString.
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
