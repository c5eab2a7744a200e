package database

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
	"github.com/johan-st/sqlhelper/internal/config"
)

// Postgres is the PostgreSQL dialect. Schemas of the connected database play
// the role of databases in the schema tree.
type Postgres struct{}

func (Postgres) Name() string       { return "postgres" }
func (Postgres) DriverName() string { return "pgx" }

func (Postgres) DSN(cfg config.DatabaseConfig) (string, error) {
	name := cfg.Name
	if name == "" {
		name = "postgres"
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(cfg.User, cfg.Password),
		Host:   net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Path:   "/" + name,
	}
	q := u.Query()
	q.Set("sslmode", "prefer")
	q.Set("connect_timeout", strconv.Itoa(int(cfg.Timeout().Seconds())))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

const pgListSchemas = `SELECT schema_name FROM information_schema.schemata
WHERE schema_name NOT IN ('pg_catalog', 'information_schema')
AND schema_name NOT LIKE 'pg_toast%' AND schema_name NOT LIKE 'pg_temp%'
ORDER BY schema_name`

const pgListTables = `SELECT table_name FROM information_schema.tables
WHERE table_schema = $1 AND table_type = 'BASE TABLE'
ORDER BY table_name`

const pgDescribe = `SELECT c.column_name, c.data_type, c.is_nullable,
COALESCE((
	SELECT CASE tc.constraint_type WHEN 'PRIMARY KEY' THEN 'PRI' WHEN 'UNIQUE' THEN 'UNI' ELSE 'MUL' END
	FROM information_schema.key_column_usage k
	JOIN information_schema.table_constraints tc
	  ON tc.constraint_name = k.constraint_name AND tc.table_schema = k.table_schema
	WHERE k.table_schema = c.table_schema AND k.table_name = c.table_name AND k.column_name = c.column_name
	ORDER BY tc.constraint_type DESC
	LIMIT 1), ''),
c.column_default,
CASE WHEN c.is_identity = 'YES' THEN 'identity' ELSE '' END
FROM information_schema.columns c
WHERE c.table_schema = $1 AND c.table_name = $2
ORDER BY c.ordinal_position`

func (Postgres) ListDatabases(ctx context.Context, q Queryer) ([]string, error) {
	rows, err := q.QueryContext(ctx, pgListSchemas)
	if err != nil {
		return nil, fmt.Errorf("failed to list schemas: %w", err)
	}
	return scanStrings(rows)
}

func (p Postgres) UseDatabase(ctx context.Context, q Queryer, schema string) error {
	if _, err := q.ExecContext(ctx, "SET search_path TO "+p.QuoteIdent(schema)); err != nil {
		return fmt.Errorf("failed to select schema %s: %w", schema, err)
	}
	return nil
}

func (Postgres) ListTables(ctx context.Context, q Queryer, schema string) ([]string, error) {
	rows, err := q.QueryContext(ctx, pgListTables, schema)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	return scanStrings(rows)
}

func (Postgres) Describe(ctx context.Context, q Queryer, schema, table string) ([]ColumnDescriptor, error) {
	rows, err := q.QueryContext(ctx, pgDescribe, schema, table)
	if err != nil {
		return nil, fmt.Errorf("failed to describe %s: %w", table, err)
	}
	defer rows.Close()

	var cols []ColumnDescriptor
	for rows.Next() {
		var c ColumnDescriptor
		if err := rows.Scan(&c.Field, &c.Type, &c.Null, &c.Key, &c.Default, &c.Extra); err != nil {
			return nil, fmt.Errorf("failed to scan column info: %w", err)
		}
		cols = append(cols, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("table %s.%s not found", schema, table)
	}
	return cols, nil
}

// TableRef is unqualified: statements run after SET search_path.
func (p Postgres) TableRef(_, table string) string { return p.QuoteIdent(table) }

func (Postgres) QuoteIdent(name string) string { return quoteIdentifier(name) }
func (Postgres) Placeholder(n int) string      { return "$" + strconv.Itoa(n) }

// RunRaw runs free-form text on the native pgx connection so the command tag
// supplies the affected row count for statements without a result set.
func (Postgres) RunRaw(ctx context.Context, conn *sql.Conn, query string) (*QueryResult, error) {
	start := time.Now()
	var result *QueryResult
	err := conn.Raw(func(driverConn any) error {
		sc, ok := driverConn.(*stdlib.Conn)
		if !ok {
			return fmt.Errorf("unexpected driver connection %T", driverConn)
		}
		rows, err := sc.Conn().Query(ctx, query, pgx.QueryExecModeSimpleProtocol)
		if err != nil {
			return err
		}
		defer rows.Close()

		res := &QueryResult{Rows: make([][]any, 0)}
		for _, fd := range rows.FieldDescriptions() {
			res.Columns = append(res.Columns, fd.Name)
		}
		for rows.Next() {
			values, err := rows.Values()
			if err != nil {
				return fmt.Errorf("failed to scan row: %w", err)
			}
			for i, v := range values {
				if b, ok := v.([]byte); ok {
					values[i] = string(b)
				}
			}
			res.Rows = append(res.Rows, values)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}
		res.IsSelect = len(res.Columns) > 0
		if !res.IsSelect {
			res.RowsAffected = rows.CommandTag().RowsAffected()
		}
		result = res
		return nil
	})
	if err != nil {
		return nil, err
	}
	result.Duration = time.Since(start)
	return result, nil
}
