package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/johan-st/sqlhelper/internal/chart"
	"github.com/johan-st/sqlhelper/internal/database"
	"go.uber.org/zap"
)

// chartView drives a composer from key presses.
type chartView struct {
	composer *chart.Composer
	keys     chartKeyMap
	help     help.Model
	note     string
}

func newChartView(rs *database.QueryResult, width, height int, logger *zap.Logger) *chartView {
	cv := &chartView{
		composer: chart.NewComposer(logger),
		keys:     defaultChartKeyMap(),
		help:     help.New(),
	}
	cv.resize(width, height)
	cv.composer.SetData(rs)
	return cv
}

func (cv *chartView) resize(width, height int) {
	cv.help.Width = width
	cv.composer.Resize(width-8, height-12)
}

// nextColumn cycles through cols, starting from the first when current is
// unset or unknown.
func nextColumn(cols []string, current string) string {
	if len(cols) == 0 {
		return ""
	}
	for i, c := range cols {
		if c == current {
			return cols[(i+1)%len(cols)]
		}
	}
	return cols[0]
}

// handle applies one control key. It reports whether an HTML export was
// requested.
func (cv *chartView) handle(msg tea.KeyMsg) (export bool) {
	cfg := cv.composer.Config()
	cols := cv.composer.Columns()

	switch {
	case key.Matches(msg, cv.keys.Kind):
		cfg = cfg.WithKind((cfg.Kind + 1) % 3)
	case key.Matches(msg, cv.keys.X):
		cfg = cfg.WithX(nextColumn(cols, cfg.X))
	case key.Matches(msg, cv.keys.Y):
		cfg = cfg.WithY(nextColumn(cols, cfg.Y))
	case key.Matches(msg, cv.keys.Sort):
		cfg = cfg.WithSort(!cfg.Sort)
	case key.Matches(msg, cv.keys.Direction):
		if cfg.Direction == chart.Ascending {
			cfg = cfg.WithDirection(chart.Descending)
		} else {
			cfg = cfg.WithDirection(chart.Ascending)
		}
	case key.Matches(msg, cv.keys.Legend):
		cfg = cfg.WithLegend(!cfg.Legend)
	case key.Matches(msg, cv.keys.Grid):
		cfg = cfg.WithGrid(!cfg.Grid)
	case key.Matches(msg, cv.keys.Labels):
		cfg = cfg.WithLabels(!cfg.Labels)
	case key.Matches(msg, cv.keys.LineStyle):
		cfg = cfg.WithLineStyle((cfg.LineStyle + 1) % 3)
	case key.Matches(msg, cv.keys.Theme):
		cfg = cfg.WithTheme((cfg.Theme + 1) % 3)
	case key.Matches(msg, cv.keys.Export):
		return true
	default:
		return false
	}

	cv.note = ""
	cv.composer.Apply(cfg)
	if err := cv.composer.LastError(); err != nil {
		cv.note = "chart not updated: " + err.Error()
	}
	return false
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func (cv *chartView) settingsLine() string {
	cfg := cv.composer.Config()
	unset := func(s string) string {
		if s == "" {
			return "-"
		}
		return s
	}
	sort := "off"
	if cfg.Sort {
		sort = cfg.Direction.String()
	}
	return fmt.Sprintf("%s  x=%s  y=%s  sort=%s  legend=%s  grid=%s  labels=%s  line=%s  theme=%s",
		cfg.Kind, unset(cfg.X), unset(cfg.Y), sort,
		onOff(cfg.Legend), onOff(cfg.Grid), onOff(cfg.Labels), cfg.LineStyle, cfg.Theme)
}

func (cv *chartView) view() string {
	var b strings.Builder
	b.WriteString(dimItemStyle.Render(cv.settingsLine()))
	b.WriteString("\n\n")

	switch {
	case cv.composer.View() != "":
		b.WriteString(cv.composer.View())
	case !cv.composer.Config().Ready():
		b.WriteString(dimItemStyle.Render("Press x and y to choose the columns to plot."))
	case cv.composer.LastError() == nil:
		b.WriteString(dimItemStyle.Render("No rows with numeric x and y."))
	}

	if cv.note != "" {
		b.WriteString("\n\n")
		b.WriteString(errorStyle.Render(cv.note))
	}
	b.WriteString("\n\n")
	b.WriteString(cv.help.View(cv.keys))
	return b.String()
}
