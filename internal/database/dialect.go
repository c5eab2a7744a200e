package database

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"

	"github.com/johan-st/sqlhelper/internal/config"
)

// Queryer is the subset of *sql.DB, *sql.Conn and *sql.Tx used by dialects.
type Queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Dialect hides the statement forms that differ between engines.
type Dialect interface {
	// Name is the config driver name (mysql, postgres, sqlite).
	Name() string
	// DriverName is the database/sql driver to open.
	DriverName() string
	DSN(cfg config.DatabaseConfig) (string, error)

	ListDatabases(ctx context.Context, q Queryer) ([]string, error)
	UseDatabase(ctx context.Context, q Queryer, database string) error
	ListTables(ctx context.Context, q Queryer, database string) ([]string, error)
	Describe(ctx context.Context, q Queryer, database, table string) ([]ColumnDescriptor, error)

	// TableRef returns the reference to use in statements once database is
	// the current database.
	TableRef(database, table string) string
	QuoteIdent(name string) string
	Placeholder(n int) string
}

// rawRunner is implemented by dialects whose driver reports the outcome of
// free-form statements better through its native connection.
type rawRunner interface {
	RunRaw(ctx context.Context, conn *sql.Conn, query string) (*QueryResult, error)
}

// DialectFor returns the dialect for a configured driver.
func DialectFor(driver string) (Dialect, error) {
	switch strings.ToLower(driver) {
	case "mysql", "mariadb":
		return MySQL{}, nil
	case "postgres", "postgresql", "pgx":
		return Postgres{}, nil
	case "sqlite", "sqlite3":
		return SQLite{}, nil
	default:
		return nil, fmt.Errorf("unsupported driver %q", driver)
	}
}

// SelectAll returns the statement fetching every row of a table.
func SelectAll(d Dialect, database, table string) string {
	return "SELECT * FROM " + d.TableRef(database, table)
}

var plainIdent = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// DisplayIdent renders an identifier for human-readable statement previews:
// plain names stay bare, anything else is quoted by the dialect.
func DisplayIdent(d Dialect, name string) string {
	if plainIdent.MatchString(name) {
		return name
	}
	return d.QuoteIdent(name)
}

func scanStrings(rows *sql.Rows) ([]string, error) {
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
