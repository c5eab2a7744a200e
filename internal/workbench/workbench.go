// Package workbench owns the application state of a database session: the
// single connection, the schema tree, the selection, the display mode and
// the most recent result set. Every user-facing surface drives it.
//
// Operations are serialized by a mutex, so surfaces may issue them from
// background commands without overlapping.
package workbench

import (
	"context"
	"sync"

	"github.com/johan-st/sqlhelper/internal/apperr"
	"github.com/johan-st/sqlhelper/internal/config"
	"github.com/johan-st/sqlhelper/internal/database"
	"github.com/johan-st/sqlhelper/internal/history"
	"go.uber.org/zap"
)

// Recorder receives executed statements. *history.Recorder implements it.
type Recorder interface {
	RecordQuery(record history.QueryRecord) error
}

// Workbench is the explicit application state.
type Workbench struct {
	mu sync.Mutex

	cfg     config.Config
	conn    *database.Connection
	tree    []*SchemaNode
	sel     Selection
	mode    DisplayMode
	display *Display
	result  *database.QueryResult

	recorder Recorder
	logger   *zap.Logger
}

// Option configures a Workbench.
type Option func(*Workbench)

// WithRecorder records executed statements.
func WithRecorder(r Recorder) Option {
	return func(w *Workbench) { w.recorder = r }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(w *Workbench) { w.logger = l }
}

// New creates a disconnected workbench.
func New(cfg config.Config, opts ...Option) *Workbench {
	w := &Workbench{
		cfg:    cfg,
		mode:   ModeData,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.Named("workbench")
	return w
}

// Config returns the current configuration.
func (w *Workbench) Config() config.Config {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.cfg
}

// Connected reports whether a connection is open.
func (w *Workbench) Connected() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.conn != nil
}

// Target describes the open connection, or "" when disconnected.
func (w *Workbench) Target() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.conn == nil {
		return ""
	}
	return w.conn.Target()
}

// Connect replaces any open connection with a new one built from the
// current config, then reloads the schema tree. On failure no connection
// remains and the schema tree is left as it was.
func (w *Workbench) Connect(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.connect(ctx)
}

// Reconfigure replaces the config wholesale and reconnects.
func (w *Workbench) Reconfigure(ctx context.Context, cfg config.Config) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.cfg = cfg
	return w.connect(ctx)
}

func (w *Workbench) connect(ctx context.Context) error {
	w.disconnect()

	conn, err := database.Open(ctx, w.cfg.Database, w.logger)
	if err != nil {
		w.logger.Warn("connect failed", zap.String("driver", w.cfg.Database.Driver), zap.Error(err))
		return apperr.Wrap(apperr.KindConnection, "connect", err)
	}
	w.conn = conn

	// A new server invalidates the old selection and whatever was shown.
	w.sel = Selection{}
	w.display = nil
	w.result = nil

	_, err = w.loadDatabases(ctx)
	return err
}

// Disconnect closes the connection. It is a no-op when already closed.
func (w *Workbench) Disconnect() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.disconnect()
}

func (w *Workbench) disconnect() error {
	if w.conn == nil {
		return nil
	}
	err := w.conn.Close()
	w.conn = nil
	return err
}

func (w *Workbench) requireConnection(op string) error {
	if w.conn == nil {
		return apperr.New(apperr.KindConnection, op, "not connected")
	}
	return nil
}

// requireTable checks the preconditions of every table-scoped operation.
// It performs no I/O.
func (w *Workbench) requireTable(op string) error {
	if w.sel.Empty() {
		return apperr.Validation(op, "no table selected")
	}
	return w.requireConnection(op)
}

func (w *Workbench) record(query string, result *database.QueryResult, err error) {
	if w.recorder == nil {
		return
	}
	rec := history.QueryRecord{
		Target:   w.conn.Target(),
		Database: w.sel.Database,
		Query:    query,
	}
	if result != nil {
		rec.ExecutionTimeMs = result.Duration.Milliseconds()
		rec.RowsAffected = result.RowsAffected
	}
	if err != nil {
		rec.Error = err.Error()
	}
	if rerr := w.recorder.RecordQuery(rec); rerr != nil {
		w.logger.Warn("failed to record history", zap.Error(rerr))
	}
}
