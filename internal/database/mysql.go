package database

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"strconv"

	"github.com/go-sql-driver/mysql"
	"github.com/johan-st/sqlhelper/internal/config"
)

// MySQL is the dialect of MySQL and MariaDB servers.
type MySQL struct{}

func (MySQL) Name() string       { return "mysql" }
func (MySQL) DriverName() string { return "mysql" }

func (MySQL) DSN(cfg config.DatabaseConfig) (string, error) {
	mc := mysql.NewConfig()
	mc.User = cfg.User
	mc.Passwd = cfg.Password
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	mc.DBName = cfg.Name
	mc.Timeout = cfg.Timeout()
	mc.ParseTime = true
	mc.Params = map[string]string{"charset": "utf8mb4"}
	return mc.FormatDSN(), nil
}

func (MySQL) ListDatabases(ctx context.Context, q Queryer) ([]string, error) {
	rows, err := q.QueryContext(ctx, "SHOW DATABASES")
	if err != nil {
		return nil, fmt.Errorf("failed to list databases: %w", err)
	}
	return scanStrings(rows)
}

func (m MySQL) UseDatabase(ctx context.Context, q Queryer, database string) error {
	if _, err := q.ExecContext(ctx, "USE "+m.QuoteIdent(database)); err != nil {
		return fmt.Errorf("failed to select database %s: %w", database, err)
	}
	return nil
}

func (m MySQL) ListTables(ctx context.Context, q Queryer, database string) ([]string, error) {
	if err := m.UseDatabase(ctx, q, database); err != nil {
		return nil, err
	}
	rows, err := q.QueryContext(ctx, "SHOW TABLES")
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	return scanStrings(rows)
}

func (m MySQL) Describe(ctx context.Context, q Queryer, database, table string) ([]ColumnDescriptor, error) {
	if err := m.UseDatabase(ctx, q, database); err != nil {
		return nil, err
	}
	rows, err := q.QueryContext(ctx, "DESCRIBE "+m.QuoteIdent(table))
	if err != nil {
		return nil, fmt.Errorf("failed to describe %s: %w", table, err)
	}
	defer rows.Close()

	var cols []ColumnDescriptor
	for rows.Next() {
		var c ColumnDescriptor
		var key, extra sql.NullString
		if err := rows.Scan(&c.Field, &c.Type, &c.Null, &key, &c.Default, &extra); err != nil {
			return nil, fmt.Errorf("failed to scan column info: %w", err)
		}
		c.Key = key.String
		c.Extra = extra.String
		cols = append(cols, c)
	}
	return cols, rows.Err()
}

// TableRef is unqualified: statements run after USE.
func (m MySQL) TableRef(_, table string) string { return m.QuoteIdent(table) }

func (MySQL) QuoteIdent(name string) string { return quoteBacktick(name) }
func (MySQL) Placeholder(int) string        { return "?" }

// ChangeMark is unused: ROW_COUNT already reports the last statement alone.
func (MySQL) ChangeMark(context.Context, Queryer) (int64, error) { return 0, nil }

// RowsChanged reads ROW_COUNT for the statement that just ran.
func (MySQL) RowsChanged(ctx context.Context, q Queryer, _ int64) (int64, error) {
	var n sql.NullInt64
	rows, err := q.QueryContext(ctx, "SELECT ROW_COUNT()")
	if err != nil {
		return 0, fmt.Errorf("failed to read row count: %w", err)
	}
	defer rows.Close()
	if rows.Next() {
		if err := rows.Scan(&n); err != nil {
			return 0, err
		}
	}
	// -1 means the statement was not a data change.
	if n.Int64 < 0 {
		return 0, rows.Err()
	}
	return n.Int64, rows.Err()
}
