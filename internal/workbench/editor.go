package workbench

import (
	"context"

	"github.com/johan-st/sqlhelper/internal/apperr"
	"github.com/johan-st/sqlhelper/internal/database"
	"go.uber.org/zap"
)

// Field is one input of a row form.
type Field struct {
	Name     string
	Type     string
	Nullable bool
	Primary  bool // declared primary key
	Key      bool // the column update and delete match on
	Value    string
}

// BuildForm maps column descriptors to form fields, pre-filled from row when
// row is non-nil. It performs no I/O.
func BuildForm(cols []database.ColumnDescriptor, row []any, keyColumn string) []Field {
	fields := make([]Field, len(cols))
	for i, c := range cols {
		fields[i] = Field{
			Name:     c.Field,
			Type:     c.Type,
			Nullable: c.Nullable(),
			Primary:  c.IsPrimaryKey(),
			Key:      c.Field == keyColumn,
		}
		if row != nil && i < len(row) {
			fields[i].Value = database.FormatValue(row[i])
		}
	}
	return fields
}

// FormKind says what submitting a form does.
type FormKind int

const (
	FormInsert FormKind = iota
	FormUpdate
)

// Form is a prepared insert or update awaiting user input.
type Form struct {
	Kind      FormKind
	Selection Selection
	Fields    []Field

	// Update only.
	RowIndex  int
	KeyColumn string
	KeyValue  any

	original []any
}

// SetKeyColumn designates the column an update matches on. By default it is
// the first column; no primary key is verified.
func (f *Form) SetKeyColumn(name string) error {
	if f.Kind != FormUpdate {
		return apperr.Validation("key column", "only updates have a key column")
	}
	for i, field := range f.Fields {
		if field.Name == name {
			f.KeyColumn = name
			f.KeyValue = f.original[i]
			for j := range f.Fields {
				f.Fields[j].Key = j == i
			}
			return nil
		}
	}
	return apperr.Validation("key column", "unknown column %q", name)
}

func (f *Form) assignments(values []string) ([]database.Assignment, error) {
	if len(values) != len(f.Fields) {
		return nil, apperr.Validation("submit", "expected %d values, got %d", len(f.Fields), len(values))
	}
	out := make([]database.Assignment, len(values))
	for i, v := range values {
		out[i] = database.Assignment{Column: f.Fields[i].Name, Value: v}
	}
	return out, nil
}

// PendingDelete is a prepared delete awaiting confirmation.
type PendingDelete struct {
	Selection Selection
	RowIndex  int
	KeyColumn string
	KeyValue  any
	Statement database.Statement

	dialect database.Dialect
	columns []string
	row     []any
}

// Columns lists the columns the delete may match on, in table order.
func (p *PendingDelete) Columns() []string {
	return p.columns
}

// SetKeyColumn makes the delete match on name using the loaded row's value,
// rebuilding Statement.
func (p *PendingDelete) SetKeyColumn(name string) error {
	for i, c := range p.columns {
		if c != name {
			continue
		}
		stmt, err := database.BuildDelete(p.dialect, p.Selection.Database, p.Selection.Table, name, p.row[i])
		if err != nil {
			return apperr.Wrap(apperr.KindValidation, "key column", err)
		}
		p.KeyColumn = name
		p.KeyValue = p.row[i]
		p.Statement = stmt
		return nil
	}
	return apperr.Validation("key column", "unknown column %q", name)
}

// PrepareInsert describes the selected table and returns an empty form.
func (w *Workbench) PrepareInsert(ctx context.Context) (*Form, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.requireTable("insert"); err != nil {
		return nil, err
	}
	cols, err := w.conn.Describe(ctx, w.sel.Database, w.sel.Table)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindQuery, "insert", err)
	}
	return &Form{
		Kind:      FormInsert,
		Selection: w.sel,
		Fields:    BuildForm(cols, nil, ""),
	}, nil
}

// PreviewInsert renders the statement Insert would run.
func (w *Workbench) PreviewInsert(form *Form, values []string) (database.Statement, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.insertStatement(form, values)
}

func (w *Workbench) insertStatement(form *Form, values []string) (database.Statement, error) {
	if err := w.requireConnection("insert"); err != nil {
		return database.Statement{}, err
	}
	assigns, err := form.assignments(values)
	if err != nil {
		return database.Statement{}, err
	}
	stmt, err := database.BuildInsert(w.conn.Dialect(), form.Selection.Database, form.Selection.Table, assigns)
	if err != nil {
		return database.Statement{}, apperr.Wrap(apperr.KindValidation, "insert", err)
	}
	return stmt, nil
}

// Insert inserts one row with the field text bound verbatim, then refreshes.
func (w *Workbench) Insert(ctx context.Context, form *Form, values []string) (*Display, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if form == nil || form.Kind != FormInsert {
		return nil, apperr.Validation("insert", "no insert form")
	}
	stmt, err := w.insertStatement(form, values)
	if err != nil {
		return nil, err
	}
	return w.apply(ctx, "insert", form.Selection, stmt)
}

// loadRow fetches the full row set once and returns the row at index along
// with the table's column descriptors. Update and delete both key on the
// first descriptor.
func (w *Workbench) loadRow(ctx context.Context, op string, rowIndex int) ([]database.ColumnDescriptor, []any, error) {
	if err := w.requireTable(op); err != nil {
		return nil, nil, err
	}
	result, err := w.conn.SelectAll(ctx, w.sel.Database, w.sel.Table)
	if err != nil {
		return nil, nil, apperr.Wrap(apperr.KindQuery, op, err)
	}
	if len(result.Rows) == 0 {
		return nil, nil, apperr.Validation(op, "%s", EmptyTableMarker)
	}
	if rowIndex < 0 || rowIndex >= len(result.Rows) {
		return nil, nil, apperr.Validation(op, "row %d is out of range (%d rows)", rowIndex, len(result.Rows))
	}
	cols, err := w.conn.Describe(ctx, w.sel.Database, w.sel.Table)
	if err != nil {
		return nil, nil, apperr.Wrap(apperr.KindQuery, op, err)
	}
	row := result.Rows[rowIndex]
	if len(cols) != len(row) {
		return nil, nil, apperr.Validation(op, "table has %d columns but the row has %d", len(cols), len(row))
	}
	return cols, row, nil
}

// PrepareUpdate returns a form pre-filled from the row at rowIndex, keyed on
// the first column.
func (w *Workbench) PrepareUpdate(ctx context.Context, rowIndex int) (*Form, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	cols, row, err := w.loadRow(ctx, "update", rowIndex)
	if err != nil {
		return nil, err
	}

	key := cols[0].Field
	return &Form{
		Kind:      FormUpdate,
		Selection: w.sel,
		Fields:    BuildForm(cols, row, key),
		RowIndex:  rowIndex,
		KeyColumn: key,
		KeyValue:  row[0],
		original:  row,
	}, nil
}

// PreviewUpdate renders the statement Update would run.
func (w *Workbench) PreviewUpdate(form *Form, values []string) (database.Statement, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.updateStatement(form, values)
}

func (w *Workbench) updateStatement(form *Form, values []string) (database.Statement, error) {
	if err := w.requireConnection("update"); err != nil {
		return database.Statement{}, err
	}
	assigns, err := form.assignments(values)
	if err != nil {
		return database.Statement{}, err
	}
	stmt, err := database.BuildUpdate(w.conn.Dialect(), form.Selection.Database, form.Selection.Table,
		assigns, form.KeyColumn, form.KeyValue)
	if err != nil {
		return database.Statement{}, apperr.Wrap(apperr.KindValidation, "update", err)
	}
	return stmt, nil
}

// Update writes values to the rows matching the form's key, then refreshes.
func (w *Workbench) Update(ctx context.Context, form *Form, values []string) (*Display, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if form == nil || form.Kind != FormUpdate {
		return nil, apperr.Validation("update", "no update form")
	}
	stmt, err := w.updateStatement(form, values)
	if err != nil {
		return nil, err
	}
	return w.apply(ctx, "update", form.Selection, stmt)
}

// PrepareDelete builds the delete of the row at rowIndex, keyed on the first
// column. Nothing runs until Delete is called with the result.
func (w *Workbench) PrepareDelete(ctx context.Context, rowIndex int) (*PendingDelete, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	cols, row, err := w.loadRow(ctx, "delete", rowIndex)
	if err != nil {
		return nil, err
	}

	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Field
	}
	p := &PendingDelete{
		Selection: w.sel,
		RowIndex:  rowIndex,
		dialect:   w.conn.Dialect(),
		columns:   names,
		row:       row,
	}
	if err := p.SetKeyColumn(names[0]); err != nil {
		return nil, err
	}
	return p, nil
}

// Delete runs a confirmed delete, then refreshes.
func (w *Workbench) Delete(ctx context.Context, pending *PendingDelete) (*Display, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if pending == nil {
		return nil, apperr.Validation("delete", "nothing to delete")
	}
	return w.apply(ctx, "delete", pending.Selection, pending.Statement)
}

// apply executes a row statement. Each statement commits on its own; a
// failure is returned as is with no retry.
func (w *Workbench) apply(ctx context.Context, op string, sel Selection, stmt database.Statement) (*Display, error) {
	if err := w.requireConnection(op); err != nil {
		return nil, err
	}

	result, err := w.conn.Exec(ctx, sel.Database, stmt)
	w.record(stmt.Preview, result, err)
	if err != nil {
		w.logger.Warn(op+" failed", zap.String("statement", stmt.Preview), zap.Error(err))
		return nil, apperr.Wrap(apperr.KindQuery, op, err)
	}
	w.logger.Info(op, zap.String("statement", stmt.Preview), zap.Int64("rows", result.RowsAffected))

	if sel != w.sel {
		return w.display, nil
	}
	return w.refresh(ctx)
}
