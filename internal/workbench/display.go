package workbench

import (
	"context"
	"fmt"
	"time"

	"github.com/johan-st/sqlhelper/internal/apperr"
	"github.com/johan-st/sqlhelper/internal/database"
)

// DisplayMode selects what the main panel shows for the selection.
type DisplayMode int

const (
	ModeData DisplayMode = iota
	ModeStructure
)

func (m DisplayMode) String() string {
	if m == ModeStructure {
		return "Structure"
	}
	return "Data"
}

// Markers rendered instead of a table.
const (
	EmptyTableMarker  = "table is empty"
	StatementOKMarker = "statement executed successfully, no rows returned"
)

// DisplayKind tells surfaces how to render a Display.
type DisplayKind int

const (
	DisplayRows DisplayKind = iota
	DisplayStructure
	DisplayEmpty
	DisplayStatus
)

// Display is the rendered content of the main panel.
type Display struct {
	Kind    DisplayKind
	Title   string
	Columns []string
	Rows    [][]string
	Message string

	// AdHoc marks the outcome of a typed statement rather than a view of
	// the selected table.
	AdHoc bool
	// Set only for ad-hoc statements.
	RowsAffected int64
	Elapsed      time.Duration
}

// Mode returns the current display mode.
func (w *Workbench) Mode() DisplayMode {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.mode
}

// Current returns the last successfully rendered display, or nil.
func (w *Workbench) Current() *Display {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.display
}

// ResultSet returns the rows most recently fetched for display, or nil.
func (w *Workbench) ResultSet() *database.QueryResult {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.result
}

// Refresh renders the selected table in the current mode. On failure the
// previous display is kept.
func (w *Workbench) Refresh(ctx context.Context) (*Display, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.refresh(ctx)
}

// ToggleMode flips between data and structure and refreshes.
func (w *Workbench) ToggleMode(ctx context.Context) (*Display, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.mode == ModeData {
		w.mode = ModeStructure
	} else {
		w.mode = ModeData
	}
	return w.refresh(ctx)
}

// SetMode sets the display mode and refreshes.
func (w *Workbench) SetMode(ctx context.Context, mode DisplayMode) (*Display, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.mode = mode
	return w.refresh(ctx)
}

func (w *Workbench) refresh(ctx context.Context) (*Display, error) {
	if err := w.requireTable("refresh"); err != nil {
		return nil, err
	}

	var (
		d   *Display
		err error
	)
	switch w.mode {
	case ModeStructure:
		d, err = w.renderStructure(ctx)
	default:
		d, err = w.renderData(ctx)
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.KindQuery, "refresh "+w.sel.String(), err)
	}

	w.display = d
	return d, nil
}

func (w *Workbench) renderData(ctx context.Context) (*Display, error) {
	result, err := w.conn.SelectAll(ctx, w.sel.Database, w.sel.Table)
	if err != nil {
		return nil, err
	}
	w.result = result

	if len(result.Rows) == 0 {
		return &Display{
			Kind:    DisplayEmpty,
			Title:   w.sel.Table,
			Columns: result.Columns,
			Message: EmptyTableMarker,
		}, nil
	}
	return &Display{
		Kind:    DisplayRows,
		Title:   w.sel.Table,
		Columns: result.Columns,
		Rows:    result.Strings(),
	}, nil
}

func (w *Workbench) renderStructure(ctx context.Context) (*Display, error) {
	cols, err := w.conn.Describe(ctx, w.sel.Database, w.sel.Table)
	if err != nil {
		return nil, err
	}

	rows := make([][]string, len(cols))
	for i, c := range cols {
		rows[i] = c.Cells()
	}
	return &Display{
		Kind:    DisplayStructure,
		Title:   fmt.Sprintf("%s (structure)", w.sel.Table),
		Columns: database.StructureColumns,
		Rows:    rows,
	}, nil
}

// Columns describes the selected table.
func (w *Workbench) Columns(ctx context.Context) ([]database.ColumnDescriptor, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.requireTable("describe"); err != nil {
		return nil, err
	}
	cols, err := w.conn.Describe(ctx, w.sel.Database, w.sel.Table)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindQuery, "describe "+w.sel.String(), err)
	}
	return cols, nil
}
