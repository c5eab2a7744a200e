package cli

import (
	"errors"
	"io"
	"os"
	"strings"

	"github.com/johan-st/sqlhelper/internal/workbench"
	"github.com/spf13/cobra"
)

func (h *Handler) showCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "show <database> <table>",
		Aliases: []string{"select", "browse"},
		Short:   "Show the rows of a table",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			wb, err := h.openTable(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			defer wb.Disconnect()

			d, err := wb.Refresh(cmd.Context())
			if err != nil {
				return err
			}
			return writeDisplay(cmd.OutOrStdout(), h.format, d)
		},
	}
}

func (h *Handler) queryCmd() *cobra.Command {
	var database, table string

	cmd := &cobra.Command{
		Use:   `query "<sql>"`,
		Short: "Run one SQL statement",
		Long: `Run one SQL statement and print its rows or the number of rows affected.
Use "-" to read the statement from stdin.

With --database and --table the statement runs with that table selected,
as it does in the interactive UI.`,
		Example: `  sqlhelper query "SELECT * FROM users WHERE active = 1"
  sqlhelper query --path shop.db --format json "SELECT count(*) AS n FROM orders"
  cat report.sql | sqlhelper query -`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sqlText := args[0]
			if sqlText == "-" {
				in := cmd.InOrStdin()
				if in == nil {
					in = os.Stdin
				}
				b, err := io.ReadAll(in)
				if err != nil {
					return err
				}
				sqlText = string(b)
			}
			if (database == "") != (table == "") {
				return errors.New("--database and --table go together")
			}

			var (
				wb  *workbench.Workbench
				err error
			)
			if database != "" {
				wb, err = h.openTable(cmd.Context(), database, table)
			} else {
				wb, err = h.openWorkbench(cmd.Context())
			}
			if err != nil {
				return err
			}
			defer wb.Disconnect()

			d, err := wb.Execute(cmd.Context(), strings.TrimSpace(sqlText))
			if d != nil {
				if werr := writeDisplay(cmd.OutOrStdout(), h.format, d); werr != nil {
					return werr
				}
			}
			return err
		},
	}
	cmd.Flags().StringVarP(&database, "database", "d", "", "Database of the selected table")
	cmd.Flags().StringVarP(&table, "table", "t", "", "Selected table")
	return cmd
}
