package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

func (h *Handler) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if h.format == "json" {
				return printJSON(cmd.OutOrStdout(), map[string]string{
					"version": h.version,
					"go":      runtime.Version(),
					"os":      runtime.GOOS,
					"arch":    runtime.GOARCH,
				})
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "sqlhelper %s (%s %s/%s)\n",
				h.version, runtime.Version(), runtime.GOOS, runtime.GOARCH)
			return err
		},
	}
}
