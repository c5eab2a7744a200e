package chart

import (
	"fmt"
	"io"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// WriteHTML renders fig as a standalone ECharts page.
func WriteHTML(fig *Figure, w io.Writer) error {
	if fig == nil {
		return fmt.Errorf("no chart to export")
	}

	init := opts.Initialization{
		PageTitle:       fig.Title,
		BackgroundColor: fig.Palette.Background,
		Width:           "960px",
		Height:          "600px",
	}
	text := &opts.TextStyle{Color: fig.Palette.Foreground}
	title := opts.Title{Title: fig.Title, TitleStyle: text}
	legend := opts.Legend{Show: opts.Bool(fig.Legend), TextStyle: text, Top: "30"}
	label := opts.Label{Show: opts.Bool(fig.Labels), Color: fig.Palette.Foreground}

	switch fig.Kind {
	case Bar:
		bar := charts.NewBar()
		bar.SetGlobalOptions(
			charts.WithInitializationOpts(init),
			charts.WithTitleOpts(title),
			charts.WithLegendOpts(legend),
			charts.WithXAxisOpts(opts.XAxis{Name: fig.XLabel, SplitLine: &opts.SplitLine{Show: opts.Bool(fig.Grid)}, AxisLabel: &opts.AxisLabel{Color: fig.Palette.Foreground}}),
			charts.WithYAxisOpts(opts.YAxis{Name: fig.YLabel, SplitLine: &opts.SplitLine{Show: opts.Bool(fig.Grid)}, AxisLabel: &opts.AxisLabel{Color: fig.Palette.Foreground}}),
		)
		xs := make([]string, len(fig.Points))
		data := make([]opts.BarData, len(fig.Points))
		for i, p := range fig.Points {
			xs[i] = p.Label
			data[i] = opts.BarData{Value: p.Y}
		}
		bar.SetXAxis(xs).AddSeries(fig.YLabel, data,
			charts.WithLabelOpts(label),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: string(barColor)}))
		return bar.Render(w)

	case Line:
		line := charts.NewLine()
		line.SetGlobalOptions(
			charts.WithInitializationOpts(init),
			charts.WithTitleOpts(title),
			charts.WithLegendOpts(legend),
			charts.WithXAxisOpts(opts.XAxis{Name: fig.XLabel, Type: "value", SplitLine: &opts.SplitLine{Show: opts.Bool(fig.Grid)}, AxisLabel: &opts.AxisLabel{Color: fig.Palette.Foreground}}),
			charts.WithYAxisOpts(opts.YAxis{Name: fig.YLabel, SplitLine: &opts.SplitLine{Show: opts.Bool(fig.Grid)}, AxisLabel: &opts.AxisLabel{Color: fig.Palette.Foreground}}),
		)
		data := make([]opts.LineData, len(fig.Points))
		for i, p := range fig.Points {
			data[i] = opts.LineData{Value: []any{p.X, p.Y}}
		}
		line.AddSeries(fig.YLabel, data,
			charts.WithLabelOpts(label),
			charts.WithLineStyleOpts(opts.LineStyle{Type: fig.LineStyle.String(), Color: "#2ca02c"}))
		return line.Render(w)

	case Pie:
		pie := charts.NewPie()
		pie.SetGlobalOptions(
			charts.WithInitializationOpts(init),
			charts.WithTitleOpts(title),
			charts.WithLegendOpts(opts.Legend{Show: opts.Bool(false)}),
		)
		data := make([]opts.PieData, len(fig.Points))
		for i, p := range fig.Points {
			data[i] = opts.PieData{Name: p.Label, Value: p.Y}
		}
		pie.AddSeries(fig.YLabel, data,
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Formatter: "{b}: {d}%", Color: fig.Palette.Foreground}))
		return pie.Render(w)
	}
	return fmt.Errorf("unsupported chart kind %v", fig.Kind)
}

// WriteHTMLFile writes fig to path.
func WriteHTMLFile(fig *Figure, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := WriteHTML(fig, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
