package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/johan-st/sqlhelper/internal/workbench"
	"github.com/spf13/cobra"
)

// parseAssignments parses col=value arguments.
func parseAssignments(args []string) (map[string]string, error) {
	out := make(map[string]string, len(args))
	for _, a := range args {
		col, val, ok := strings.Cut(a, "=")
		if !ok || col == "" {
			return nil, fmt.Errorf("invalid assignment %q (want column=value)", a)
		}
		out[col] = val
	}
	return out, nil
}

// fillValues lays assignments over the form's current field values.
func fillValues(fields []workbench.Field, assigns map[string]string) ([]string, error) {
	values := make([]string, len(fields))
	known := make(map[string]bool, len(fields))
	for i, f := range fields {
		values[i] = f.Value
		known[f.Name] = true
		if v, ok := assigns[f.Name]; ok {
			values[i] = v
		}
	}
	for col := range assigns {
		if !known[col] {
			return nil, fmt.Errorf("unknown column %q", col)
		}
	}
	return values, nil
}

func parseRowIndex(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid row index %q", s)
	}
	return n, nil
}

func (h *Handler) insertCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "insert <database> <table> column=value...",
		Short: "Insert a row",
		Long: `Insert one row. Columns not given are inserted as empty text, the way
an untouched field of the row form is.`,
		Example: `  sqlhelper insert main users name=alice email=alice@example.com`,
		Args:    cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			assigns, err := parseAssignments(args[2:])
			if err != nil {
				return err
			}
			wb, err := h.openTable(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			defer wb.Disconnect()

			form, err := wb.PrepareInsert(cmd.Context())
			if err != nil {
				return err
			}
			values, err := fillValues(form.Fields, assigns)
			if err != nil {
				return err
			}
			if dryRun {
				stmt, err := wb.PreviewInsert(form, values)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), stmt.Preview)
				return err
			}
			d, err := wb.Insert(cmd.Context(), form, values)
			if err != nil {
				return err
			}
			return writeDisplay(cmd.OutOrStdout(), h.format, d)
		},
	}
	cmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "Print the statement instead of running it")
	return cmd
}

func (h *Handler) updateCmd() *cobra.Command {
	var (
		key    string
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "update <database> <table> <row> column=value...",
		Short: "Update the row at an index",
		Long: `Update the row at the given zero-based index of the table's data.
The row is matched on its first column unless --key names another one.
Every row sharing that value is updated.`,
		Example: `  sqlhelper update main users 0 email=new@example.com
  sqlhelper update main users 3 --key email active=0`,
		Args: cobra.MinimumNArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			idx, err := parseRowIndex(args[2])
			if err != nil {
				return err
			}
			assigns, err := parseAssignments(args[3:])
			if err != nil {
				return err
			}
			wb, err := h.openTable(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			defer wb.Disconnect()

			form, err := wb.PrepareUpdate(cmd.Context(), idx)
			if err != nil {
				return err
			}
			if key != "" {
				if err := form.SetKeyColumn(key); err != nil {
					return err
				}
			}
			values, err := fillValues(form.Fields, assigns)
			if err != nil {
				return err
			}
			if dryRun {
				stmt, err := wb.PreviewUpdate(form, values)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), stmt.Preview)
				return err
			}
			d, err := wb.Update(cmd.Context(), form, values)
			if err != nil {
				return err
			}
			return writeDisplay(cmd.OutOrStdout(), h.format, d)
		},
	}
	cmd.Flags().StringVarP(&key, "key", "k", "", "Column the row is matched on")
	cmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "Print the statement instead of running it")
	return cmd
}

func (h *Handler) deleteCmd() *cobra.Command {
	var (
		yes bool
		key string
	)

	cmd := &cobra.Command{
		Use:   "delete <database> <table> <row>",
		Short: "Delete the row at an index",
		Long: `Delete the row at the given zero-based index, matched on its first
column unless --key names another one. Without --yes the statement is
printed and nothing runs.`,
		Example: `  sqlhelper delete main users 3 --key email --yes`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			idx, err := parseRowIndex(args[2])
			if err != nil {
				return err
			}
			wb, err := h.openTable(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			defer wb.Disconnect()

			pending, err := wb.PrepareDelete(cmd.Context(), idx)
			if err != nil {
				return err
			}
			if key != "" {
				if err := pending.SetKeyColumn(key); err != nil {
					return err
				}
			}
			if !yes {
				fmt.Fprintln(cmd.OutOrStdout(), pending.Statement.Preview)
				return errors.New("not confirmed (pass --yes to delete)")
			}
			d, err := wb.Delete(cmd.Context(), pending)
			if err != nil {
				return err
			}
			return writeDisplay(cmd.OutOrStdout(), h.format, d)
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Confirm the delete")
	cmd.Flags().StringVarP(&key, "key", "k", "", "Column the row is matched on")
	return cmd
}
