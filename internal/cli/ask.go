package cli

import (
	"fmt"

	"github.com/johan-st/sqlhelper/internal/ai"
	"github.com/spf13/cobra"
)

func (h *Handler) askCmd() *cobra.Command {
	var run bool

	cmd := &cobra.Command{
		Use:   `ask <database> <table> "<request>"`,
		Short: "Ask the AI endpoint to write SQL for a table",
		Long: `Send the table's structure and a plain-language request to the configured
chat completion endpoint and print the SQL it proposes. Nothing runs unless
--run is given.`,
		Example: `  sqlhelper ask main orders "total amount per customer, largest first"
  sqlhelper ask main orders "delete cancelled orders" --run`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			wb, err := h.openTable(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			defer wb.Disconnect()

			bridge := ai.NewBridge(wb, h.recorder, h.logger)
			ex, err := bridge.Generate(cmd.Context(), args[2])
			if err != nil {
				return err
			}
			stmt, err := bridge.Statement()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !run {
				if h.format == "json" {
					return printJSON(out, map[string]string{
						"sql":         ex.SQL,
						"statement":   stmt,
						"explanation": ex.Explanation,
					})
				}
				fmt.Fprintln(out, ex.SQL)
				if ex.Explanation != "" {
					fmt.Fprintf(out, "\n-- %s\n", ex.Explanation)
				}
				return nil
			}

			if h.format == "table" {
				fmt.Fprintf(out, "Running: %s\n", stmt)
			}
			d, err := bridge.Execute(cmd.Context())
			if d != nil {
				if werr := writeDisplay(out, h.format, d); werr != nil {
					return werr
				}
			}
			return err
		},
	}
	cmd.Flags().BoolVar(&run, "run", false, "Run the generated statement")
	return cmd
}
