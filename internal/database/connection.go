// Package database handles the single workbench connection and the
// per-engine statement forms used to browse and edit it.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/johan-st/sqlhelper/internal/config"
	"go.uber.org/zap"
)

// Connection is an open database handle. All statements run on one pinned
// *sql.Conn so session state such as USE or search_path persists between
// calls.
type Connection struct {
	db      *sql.DB
	conn    *sql.Conn
	dialect Dialect
	target  string
	logger  *zap.Logger
	mu      sync.Mutex
}

// attacher is implemented by dialects that mount extra databases after open.
type attacher interface {
	Attach(ctx context.Context, q Queryer, cfg config.DatabaseConfig) error
}

// Open opens and verifies a connection described by cfg.
func Open(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*Connection, error) {
	dialect, err := DialectFor(cfg.Driver)
	if err != nil {
		return nil, err
	}

	dsn, err := dialect.DSN(cfg)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(dialect.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.Timeout())
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	conn, err := NewConnection(ctx, db, dialect, logger)
	if err != nil {
		db.Close()
		return nil, err
	}
	conn.target = describeTarget(cfg)

	if a, ok := dialect.(attacher); ok {
		if err := a.Attach(ctx, conn.conn, cfg); err != nil {
			conn.Close()
			return nil, err
		}
	}

	conn.logger.Info("connected", zap.String("driver", dialect.Name()), zap.String("target", conn.target))
	return conn, nil
}

// NewConnection wraps an already opened *sql.DB.
func NewConnection(ctx context.Context, db *sql.DB, dialect Dialect, logger *zap.Logger) (*Connection, error) {
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0) // Don't close idle connections

	conn, err := db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}

	return &Connection{
		db:      db,
		conn:    conn,
		dialect: dialect,
		target:  dialect.Name(),
		logger:  logger.Named("db"),
	}, nil
}

func describeTarget(cfg config.DatabaseConfig) string {
	if cfg.Driver == "sqlite" {
		return cfg.Path
	}
	return cfg.User + "@" + net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
}

// Dialect returns the engine dialect.
func (c *Connection) Dialect() Dialect {
	return c.dialect
}

// Target is a human-readable description of what is connected.
func (c *Connection) Target() string {
	return c.target
}

// Close closes the database connection.
func (c *Connection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.db == nil {
		return nil
	}
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	err := c.db.Close()
	c.db = nil
	c.logger.Info("disconnected", zap.String("target", c.target))
	return err
}

func (c *Connection) queryer() (Queryer, error) {
	if c.conn == nil {
		return nil, fmt.Errorf("connection is closed")
	}
	return c.conn, nil
}

// Run executes statement text typed by the user. Whether it yields a table
// is decided by the driver's result metadata.
func (c *Connection) Run(ctx context.Context, query string) (*QueryResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return nil, fmt.Errorf("connection is closed")
	}
	start := time.Now()
	var result *QueryResult
	var err error
	if r, ok := c.dialect.(rawRunner); ok {
		result, err = r.RunRaw(ctx, c.conn, query)
	} else {
		result, err = Run(ctx, c.conn, c.dialect, query)
	}
	c.log("run", query, start, err)
	return result, err
}

// Select runs a statement that returns rows.
func (c *Connection) Select(ctx context.Context, query string, args ...any) (*QueryResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	q, err := c.queryer()
	if err != nil {
		return nil, err
	}
	start := time.Now()
	result, err := Select(ctx, q, query, args...)
	c.log("select", query, start, err)
	return result, err
}

func (c *Connection) exec(ctx context.Context, query string, args ...any) (*QueryResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	q, err := c.queryer()
	if err != nil {
		return nil, err
	}
	start := time.Now()
	result, err := Exec(ctx, q, query, args...)
	c.log("exec", query, start, err)
	return result, err
}

func (c *Connection) log(kind, query string, start time.Time, err error) {
	c.logger.Debug("statement",
		zap.String("kind", kind),
		zap.String("query", query),
		zap.Duration("duration", time.Since(start)),
		zap.Error(err))
}

// ListDatabases lists the databases visible to the connection.
func (c *Connection) ListDatabases(ctx context.Context) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	q, err := c.queryer()
	if err != nil {
		return nil, err
	}
	return c.dialect.ListDatabases(ctx, q)
}

// UseDatabase makes database the current one.
func (c *Connection) UseDatabase(ctx context.Context, database string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	q, err := c.queryer()
	if err != nil {
		return err
	}
	return c.dialect.UseDatabase(ctx, q, database)
}

// ListTables lists the tables of database.
func (c *Connection) ListTables(ctx context.Context, database string) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	q, err := c.queryer()
	if err != nil {
		return nil, err
	}
	return c.dialect.ListTables(ctx, q, database)
}

// Describe returns the column descriptors of a table.
func (c *Connection) Describe(ctx context.Context, database, table string) ([]ColumnDescriptor, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	q, err := c.queryer()
	if err != nil {
		return nil, err
	}
	return c.dialect.Describe(ctx, q, database, table)
}

// SelectAll fetches every row of a table.
func (c *Connection) SelectAll(ctx context.Context, database, table string) (*QueryResult, error) {
	if err := c.UseDatabase(ctx, database); err != nil {
		return nil, err
	}
	return c.Select(ctx, SelectAll(c.dialect, database, table))
}

// Exec runs a prepared statement against database.
func (c *Connection) Exec(ctx context.Context, database string, stmt Statement) (*QueryResult, error) {
	if err := c.UseDatabase(ctx, database); err != nil {
		return nil, err
	}
	return c.exec(ctx, stmt.SQL, stmt.Args...)
}
