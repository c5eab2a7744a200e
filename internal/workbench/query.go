package workbench

import (
	"context"
	"strings"

	"github.com/johan-st/sqlhelper/internal/apperr"
	"go.uber.org/zap"
)

// Execute runs sqlText as one statement and always reloads the schema tree
// afterwards, since any statement may have changed it. If the statement
// succeeded but the reload failed, both the display and the error are
// returned.
func (w *Workbench) Execute(ctx context.Context, sqlText string) (*Display, error) {
	if strings.TrimSpace(sqlText) == "" {
		return nil, apperr.Validation("execute", "query is empty")
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.requireConnection("execute"); err != nil {
		return nil, err
	}

	// Run against the selected database when there is one.
	if w.sel.Database != "" {
		if err := w.conn.UseDatabase(ctx, w.sel.Database); err != nil {
			return nil, apperr.Wrap(apperr.KindQuery, "execute", err)
		}
	}

	result, err := w.conn.Run(ctx, sqlText)
	w.record(sqlText, result, err)
	if err != nil {
		w.logger.Warn("statement failed", zap.String("query", sqlText), zap.Error(err))
		return nil, apperr.Wrap(apperr.KindQuery, "execute", err)
	}

	var d *Display
	if result.HasColumns() {
		w.result = result
		d = &Display{
			Kind:    DisplayRows,
			Title:   "query",
			AdHoc:   true,
			Columns: result.Columns,
			Rows:    result.Strings(),
			Elapsed: result.Duration,
		}
	} else {
		d = &Display{
			Kind:         DisplayStatus,
			Title:        "query",
			AdHoc:        true,
			Message:      StatementOKMarker,
			RowsAffected: result.RowsAffected,
			Elapsed:      result.Duration,
		}
	}
	w.display = d

	if _, err := w.loadDatabases(ctx); err != nil {
		return d, err
	}
	return d, nil
}
