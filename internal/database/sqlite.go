package database

import (
	"context"
	"fmt"

	"github.com/johan-st/sqlhelper/internal/config"
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// SQLite serves one or more database files. The first discovered file is
// "main"; the rest are attached under their aliases.
type SQLite struct{}

func (SQLite) Name() string       { return "sqlite" }
func (SQLite) DriverName() string { return "sqlite" }

func (SQLite) DSN(cfg config.DatabaseConfig) (string, error) {
	dbs, err := Discover(cfg.Path)
	if err != nil {
		return "", err
	}
	return sqliteDSN(dbs[0].Path, cfg.Timeout().Milliseconds()), nil
}

func sqliteDSN(path string, busyTimeoutMS int64) string {
	return fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=foreign_keys(1)", path, busyTimeoutMS)
}

// Attach attaches every discovered file after the first one to conn.
func (s SQLite) Attach(ctx context.Context, q Queryer, cfg config.DatabaseConfig) error {
	dbs, err := Discover(cfg.Path)
	if err != nil {
		return err
	}
	for _, db := range dbs[1:] {
		stmt := fmt.Sprintf("ATTACH DATABASE ? AS %s", s.QuoteIdent(db.Alias))
		if _, err := q.ExecContext(ctx, stmt, db.Path); err != nil {
			return fmt.Errorf("failed to attach %s: %w", db.Path, err)
		}
	}
	return nil
}

func (SQLite) ListDatabases(ctx context.Context, q Queryer) ([]string, error) {
	rows, err := q.QueryContext(ctx, "SELECT name FROM pragma_database_list WHERE name <> 'temp' ORDER BY seq")
	if err != nil {
		return nil, fmt.Errorf("failed to list databases: %w", err)
	}
	return scanStrings(rows)
}

// UseDatabase is a no-op: statements are qualified through TableRef.
func (SQLite) UseDatabase(context.Context, Queryer, string) error { return nil }

func (s SQLite) ListTables(ctx context.Context, q Queryer, database string) ([]string, error) {
	rows, err := q.QueryContext(ctx, fmt.Sprintf(`
		SELECT name FROM %s.sqlite_master
		WHERE type = 'table'
		AND name NOT LIKE 'sqlite_%%'
		ORDER BY name
	`, s.QuoteIdent(database)))
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	return scanStrings(rows)
}

func (SQLite) Describe(ctx context.Context, q Queryer, database, table string) ([]ColumnDescriptor, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT name, type, "notnull", dflt_value, pk FROM pragma_table_info(?, ?) ORDER BY cid`,
		table, database)
	if err != nil {
		return nil, fmt.Errorf("failed to describe %s: %w", table, err)
	}
	defer rows.Close()

	var cols []ColumnDescriptor
	for rows.Next() {
		var (
			c       ColumnDescriptor
			notNull bool
			pk      int
		)
		if err := rows.Scan(&c.Field, &c.Type, &notNull, &c.Default, &pk); err != nil {
			return nil, fmt.Errorf("failed to scan column info: %w", err)
		}
		c.Null = "YES"
		if notNull || pk > 0 {
			c.Null = "NO"
		}
		if pk > 0 {
			c.Key = "PRI"
		}
		cols = append(cols, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("table %q not found", table)
	}
	return cols, nil
}

func (s SQLite) TableRef(database, table string) string {
	if database == "" || database == "main" {
		return s.QuoteIdent(table)
	}
	return s.QuoteIdent(database) + "." + s.QuoteIdent(table)
}

func (SQLite) QuoteIdent(name string) string { return quoteIdentifier(name) }
func (SQLite) Placeholder(int) string        { return "?" }

// ChangeMark reads the connection's running change counter.
func (SQLite) ChangeMark(ctx context.Context, q Queryer) (int64, error) {
	return sqliteTotalChanges(ctx, q)
}

// RowsChanged is the change counter's growth since mark.
func (SQLite) RowsChanged(ctx context.Context, q Queryer, mark int64) (int64, error) {
	n, err := sqliteTotalChanges(ctx, q)
	if err != nil {
		return 0, err
	}
	return n - mark, nil
}

func sqliteTotalChanges(ctx context.Context, q Queryer) (int64, error) {
	var n int64
	rows, err := q.QueryContext(ctx, "SELECT total_changes()")
	if err != nil {
		return 0, fmt.Errorf("failed to read change count: %w", err)
	}
	defer rows.Close()
	if rows.Next() {
		if err := rows.Scan(&n); err != nil {
			return 0, err
		}
	}
	return n, rows.Err()
}
