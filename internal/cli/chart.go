package cli

import (
	"errors"
	"fmt"

	"github.com/johan-st/sqlhelper/internal/chart"
	"github.com/spf13/cobra"
)

type chartFlags struct {
	x, y      string
	kind      string
	sort      string
	labels    bool
	noLegend  bool
	noGrid    bool
	lineStyle string
	theme     string
	width     int
	height    int
	out       string
	query     string
}

func (f chartFlags) config() (chart.Config, error) {
	kind, err := chart.ParseKind(f.kind)
	if err != nil {
		return chart.Config{}, err
	}
	style, err := chart.ParseLineStyle(f.lineStyle)
	if err != nil {
		return chart.Config{}, err
	}
	theme, err := chart.ParseTheme(f.theme)
	if err != nil {
		return chart.Config{}, err
	}

	cfg := chart.DefaultConfig().
		WithKind(kind).
		WithX(f.x).
		WithY(f.y).
		WithLegend(!f.noLegend).
		WithGrid(!f.noGrid).
		WithLabels(f.labels).
		WithLineStyle(style).
		WithTheme(theme)
	if f.sort != "" {
		dir, err := chart.ParseDirection(f.sort)
		if err != nil {
			return chart.Config{}, err
		}
		cfg = cfg.WithSort(true).WithDirection(dir)
	}
	return cfg, nil
}

func (h *Handler) chartCmd() *cobra.Command {
	var f chartFlags

	cmd := &cobra.Command{
		Use:   "chart <database> <table>",
		Short: "Chart two columns of a table or query result",
		Long: `Plot one column against another as a bar, line or pie chart. Both columns
are read as numbers; rows where either is not numeric are left out.

The chart is drawn in the terminal, or written as an HTML page with --out.`,
		Example: `  sqlhelper chart main sales --x month --y revenue --kind line --sort asc
  sqlhelper chart main sales --query "SELECT region, SUM(revenue) AS total FROM sales GROUP BY region" \
      --x region --y total --kind pie --out regions.html`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if f.x == "" || f.y == "" {
				return errors.New("--x and --y are required")
			}
			if h.remote && f.out != "" {
				return errors.New("--out is not available over SSH")
			}
			cfg, err := f.config()
			if err != nil {
				return err
			}

			wb, err := h.openTable(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			defer wb.Disconnect()

			if f.query != "" {
				if _, err := wb.Execute(cmd.Context(), f.query); err != nil {
					return err
				}
			} else if _, err := wb.Refresh(cmd.Context()); err != nil {
				return err
			}
			rs := wb.ResultSet()
			if rs == nil {
				return errors.New("no result set to chart")
			}

			c := chart.NewComposer(h.logger)
			c.Resize(f.width, f.height)
			c.SetData(rs)
			fig := c.Apply(cfg)
			if err := c.LastError(); err != nil {
				return fmt.Errorf("chart failed: %w", err)
			}
			if fig == nil {
				return errors.New("no numeric rows to plot")
			}

			if f.out != "" {
				if err := chart.WriteHTMLFile(fig, f.out); err != nil {
					return err
				}
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", f.out)
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), c.View())
			return err
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.x, "x", "", "X axis column")
	fl.StringVar(&f.y, "y", "", "Y axis column")
	fl.StringVarP(&f.kind, "kind", "k", "bar", "Chart kind (bar|line|pie)")
	fl.StringVar(&f.sort, "sort", "", "Sort by x (asc|desc)")
	fl.BoolVar(&f.labels, "labels", false, "Show data labels")
	fl.BoolVar(&f.noLegend, "no-legend", false, "Hide the legend")
	fl.BoolVar(&f.noGrid, "no-grid", false, "Hide the grid")
	fl.StringVar(&f.lineStyle, "line-style", "solid", "Line style (solid|dashed|dotted)")
	fl.StringVar(&f.theme, "theme", "default", "Theme (default|dark|colorful)")
	fl.IntVar(&f.width, "width", 60, "Terminal chart width")
	fl.IntVar(&f.height, "height", 12, "Terminal chart height")
	fl.StringVarP(&f.out, "out", "o", "", "Write an HTML chart to this file")
	fl.StringVarP(&f.query, "query", "q", "", "Chart the result of this statement instead of the table")
	return cmd
}
