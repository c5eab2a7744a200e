package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// QueryResult holds the results of a query execution.
type QueryResult struct {
	Columns      []string
	Rows         [][]any
	RowsAffected int64
	LastInsertID int64
	Duration     time.Duration
	IsSelect     bool
}

// HasColumns reports whether the statement produced a result shape.
func (r *QueryResult) HasColumns() bool {
	return r != nil && len(r.Columns) > 0
}

// Strings renders every cell with FormatValue.
func (r *QueryResult) Strings() [][]string {
	out := make([][]string, len(r.Rows))
	for i, row := range r.Rows {
		cells := make([]string, len(row))
		for j, v := range row {
			cells[j] = FormatValue(v)
		}
		out[i] = cells
	}
	return out
}

// Select runs a statement that is known to return rows.
func Select(ctx context.Context, q Queryer, query string, args ...any) (*QueryResult, error) {
	return executeSelect(ctx, q, query, args, time.Now())
}

// Exec runs a statement that is known to return no rows.
func Exec(ctx context.Context, q Queryer, query string, args ...any) (*QueryResult, error) {
	return executeExec(ctx, q, query, args, time.Now())
}

// changeCounter is implemented by dialects that can tell how many rows a
// statement without a result set changed.
type changeCounter interface {
	ChangeMark(ctx context.Context, q Queryer) (int64, error)
	RowsChanged(ctx context.Context, q Queryer, mark int64) (int64, error)
}

// Run executes free-form statement text. The column metadata reported by the
// driver decides whether the result is a table; the text is never inspected.
func Run(ctx context.Context, q Queryer, d Dialect, query string) (*QueryResult, error) {
	start := time.Now()

	counter, _ := d.(changeCounter)
	var mark int64
	if counter != nil {
		m, err := counter.ChangeMark(ctx, q)
		if err != nil {
			return nil, err
		}
		mark = m
	}

	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	columns, err := rows.Columns()
	if err != nil {
		rows.Close()
		return nil, fmt.Errorf("failed to get columns: %w", err)
	}
	if len(columns) > 0 {
		result, err := scanResult(rows, columns)
		if err != nil {
			return nil, err
		}
		result.Duration = time.Since(start)
		return result, nil
	}

	// No result shape: drain so the statement runs to completion.
	for rows.Next() {
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return nil, err
	}

	result := &QueryResult{}
	if counter != nil {
		n, err := counter.RowsChanged(ctx, q, mark)
		if err != nil {
			return nil, err
		}
		result.RowsAffected = n
	}
	result.Duration = time.Since(start)
	return result, nil
}

// executeSelect runs a query that returns rows.
func executeSelect(ctx context.Context, q Queryer, query string, args []any, start time.Time) (*QueryResult, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	columns, err := rows.Columns()
	if err != nil {
		rows.Close()
		return nil, fmt.Errorf("failed to get columns: %w", err)
	}
	result, err := scanResult(rows, columns)
	if err != nil {
		return nil, err
	}
	result.Duration = time.Since(start)
	return result, nil
}

// scanResult reads every row and closes rows.
func scanResult(rows *sql.Rows, columns []string) (*QueryResult, error) {
	defer rows.Close()

	result := &QueryResult{
		Columns:  columns,
		Rows:     make([][]any, 0),
		IsSelect: true,
	}

	for rows.Next() {
		values := make([]any, len(columns))
		valuePtrs := make([]any, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}

		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		// Convert []byte to string for readability
		row := make([]any, len(columns))
		for i, v := range values {
			switch val := v.(type) {
			case []byte:
				row[i] = string(val)
			default:
				row[i] = val
			}
		}
		result.Rows = append(result.Rows, row)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// executeExec runs a query that modifies data.
func executeExec(ctx context.Context, q Queryer, query string, args []any, start time.Time) (*QueryResult, error) {
	sqlResult, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	result := &QueryResult{
		Duration: time.Since(start),
	}

	// Not every driver reports these; zero is the honest fallback.
	result.RowsAffected, _ = sqlResult.RowsAffected()
	result.LastInsertID, _ = sqlResult.LastInsertId()

	return result, nil
}

// FormatValue formats a value for display.
func FormatValue(v any) string {
	if v == nil {
		return "NULL"
	}
	switch val := v.(type) {
	case []byte:
		return string(val)
	case string:
		return val
	case int64:
		return fmt.Sprintf("%d", val)
	case float64:
		return fmt.Sprintf("%g", val)
	case bool:
		if val {
			return "true"
		}
		return "false"
	case time.Time:
		if val.Hour() == 0 && val.Minute() == 0 && val.Second() == 0 && val.Nanosecond() == 0 {
			return val.Format(time.DateOnly)
		}
		return val.Format(time.DateTime)
	case sql.NullString:
		if val.Valid {
			return val.String
		}
		return "NULL"
	case sql.NullInt64:
		if val.Valid {
			return fmt.Sprintf("%d", val.Int64)
		}
		return "NULL"
	case sql.NullFloat64:
		if val.Valid {
			return fmt.Sprintf("%g", val.Float64)
		}
		return "NULL"
	default:
		return fmt.Sprintf("%v", val)
	}
}

// QuoteLiteral renders s as a single-quoted SQL string literal.
func QuoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
