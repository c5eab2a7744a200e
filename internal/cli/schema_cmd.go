package cli

import (
	"fmt"

	"github.com/johan-st/sqlhelper/internal/workbench"
	"github.com/spf13/cobra"
)

func (h *Handler) databasesCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "databases",
		Aliases: []string{"dbs", "ls"},
		Short:   "List databases",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			wb, err := h.openWorkbench(cmd.Context())
			if err != nil {
				return err
			}
			defer wb.Disconnect()

			var names []string
			for _, n := range wb.Tree() {
				names = append(names, n.Name)
			}
			return printList(cmd.OutOrStdout(), h.format, "database", names)
		},
	}
}

func (h *Handler) tablesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tables <database>",
		Short: "List tables in a database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			wb, err := h.openWorkbench(cmd.Context())
			if err != nil {
				return err
			}
			defer wb.Disconnect()

			for _, db := range wb.Tree() {
				if db.Name != args[0] {
					continue
				}
				names := make([]string, len(db.Children))
				for i, t := range db.Children {
					names[i] = t.Name
				}
				return printList(cmd.OutOrStdout(), h.format, "table", names)
			}
			return fmt.Errorf("unknown database %q", args[0])
		},
	}
}

func (h *Handler) describeCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "describe <database> <table>",
		Aliases: []string{"schema"},
		Short:   "Show the structure of a table",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			wb, err := h.openTable(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			defer wb.Disconnect()

			d, err := wb.SetMode(cmd.Context(), workbench.ModeStructure)
			if err != nil {
				return err
			}
			return writeDisplay(cmd.OutOrStdout(), h.format, d)
		},
	}
}
