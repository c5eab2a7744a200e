package cli

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/johan-st/sqlhelper/internal/workbench"
)

// writeDisplay renders a workbench display in the requested format.
func writeDisplay(w io.Writer, format string, d *workbench.Display) error {
	switch d.Kind {
	case workbench.DisplayEmpty:
		if format == "table" {
			_, err := fmt.Fprintln(w, d.Message)
			return err
		}
	case workbench.DisplayStatus:
		return writeStatus(w, format, d)
	}

	switch format {
	case "json":
		rows := make([]map[string]string, 0, len(d.Rows))
		for _, row := range d.Rows {
			m := make(map[string]string, len(d.Columns))
			for i, col := range d.Columns {
				if i < len(row) {
					m[col] = row[i]
				}
			}
			rows = append(rows, m)
		}
		return printJSON(w, rows)
	case "csv":
		return printCSV(w, d.Columns, d.Rows)
	case "table":
		printTable(w, d.Columns, d.Rows)
		if d.Kind == workbench.DisplayRows {
			_, err := fmt.Fprintf(w, "(%s rows)\n", humanize.Comma(int64(len(d.Rows))))
			return err
		}
		return nil
	}
	return fmt.Errorf("unknown format %q (want table, json or csv)", format)
}

func writeStatus(w io.Writer, format string, d *workbench.Display) error {
	if format == "json" {
		return printJSON(w, map[string]any{
			"message":       d.Message,
			"rows_affected": d.RowsAffected,
			"elapsed_ms":    d.Elapsed.Milliseconds(),
		})
	}
	_, err := fmt.Fprintf(w, "%s (%s rows affected, %s)\n", d.Message, humanize.Comma(d.RowsAffected), d.Elapsed.Round(time.Millisecond))
	return err
}

// printTable writes a go-pretty table.
func printTable(w io.Writer, headers []string, rows [][]string) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.Style().Format.Header = text.FormatDefault

	header := make(table.Row, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	t.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, len(row))
		for i, v := range row {
			r[i] = v
		}
		t.AppendRow(r)
	}
	t.Render()
}

// printJSON writes indented JSON.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printCSV writes a header line and rows.
func printCSV(w io.Writer, headers []string, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(headers); err != nil {
		return err
	}
	if err := cw.WriteAll(rows); err != nil {
		return err
	}
	return cw.Error()
}

// printList writes one name per line, or a JSON array.
func printList(w io.Writer, format, header string, names []string) error {
	switch format {
	case "json":
		if names == nil {
			names = []string{}
		}
		return printJSON(w, names)
	case "csv":
		rows := make([][]string, len(names))
		for i, n := range names {
			rows[i] = []string{n}
		}
		return printCSV(w, []string{header}, rows)
	default:
		for _, n := range names {
			if _, err := fmt.Fprintln(w, n); err != nil {
				return err
			}
		}
		return nil
	}
}
