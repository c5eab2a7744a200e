package chart

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/johan-st/sqlhelper/internal/database"
	"go.uber.org/zap"
)

// Point is one plotted row.
type Point struct {
	Label string // x as text
	X     float64
	Y     float64
}

// Figure is a computed chart, independent of how it is drawn.
type Figure struct {
	Kind      Kind
	Title     string
	XLabel    string
	YLabel    string
	Points    []Point
	Legend    bool
	Grid      bool
	Labels    bool
	LineStyle LineStyle
	Palette   Palette
}

// Composer recomputes a figure from the result set whenever its config or
// data changes. It is not safe for concurrent use.
type Composer struct {
	cfg    Config
	data   *database.QueryResult
	width  int
	height int

	fig      *Figure
	rendered string
	lastErr  error

	logger *zap.Logger
}

// NewComposer returns a composer with the default config and no data.
func NewComposer(logger *zap.Logger) *Composer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Composer{
		cfg:    DefaultConfig(),
		width:  60,
		height: 12,
		logger: logger.Named("chart"),
	}
}

// Config returns the current config.
func (c *Composer) Config() Config { return c.cfg }

// Columns lists the columns that can be chosen as axes.
func (c *Composer) Columns() []string {
	if c.data == nil {
		return nil
	}
	return c.data.Columns
}

// Apply stores cfg and recomputes.
func (c *Composer) Apply(cfg Config) *Figure {
	c.cfg = cfg
	return c.Recompute()
}

// SetData replaces the result set and recomputes.
func (c *Composer) SetData(rs *database.QueryResult) *Figure {
	c.data = rs
	return c.Recompute()
}

// Resize sets the terminal render area and recomputes.
func (c *Composer) Resize(width, height int) *Figure {
	c.width, c.height = width, height
	return c.Recompute()
}

// Figure returns the current figure, or nil.
func (c *Composer) Figure() *Figure { return c.fig }

// View returns the terminal rendering of the current figure, or "".
func (c *Composer) View() string { return c.rendered }

// LastError returns why the last recompute produced no figure, or nil when
// it succeeded or was skipped for unset axes.
func (c *Composer) LastError() error { return c.lastErr }

// Recompute discards the current figure and builds a new one. It returns
// nil when an axis is unset, when no rows survive coercion, or on failure;
// failures are logged and kept for LastError rather than returned.
func (c *Composer) Recompute() (fig *Figure) {
	c.fig, c.rendered, c.lastErr = nil, "", nil

	if !c.cfg.Ready() || c.data == nil {
		return nil
	}

	defer func() {
		if r := recover(); r != nil {
			c.fail(fmt.Errorf("chart panicked: %v", r))
			fig = nil
		}
	}()

	f, err := Build(c.cfg, c.data)
	if err != nil {
		c.fail(err)
		return nil
	}
	if f == nil {
		c.logger.Debug("no plottable rows", zap.String("x", c.cfg.X), zap.String("y", c.cfg.Y))
		return nil
	}

	out, err := RenderTerminal(f, c.width, c.height)
	if err != nil {
		c.fail(err)
		return nil
	}

	c.fig, c.rendered = f, out
	return f
}

func (c *Composer) fail(err error) {
	c.fig, c.rendered, c.lastErr = nil, "", err
	c.logger.Warn("chart update failed",
		zap.Stringer("kind", c.cfg.Kind),
		zap.String("x", c.cfg.X),
		zap.String("y", c.cfg.Y),
		zap.Error(err))
}

// Build computes a figure from rs without rendering it. A nil figure with a
// nil error means every row was dropped by numeric coercion.
func Build(cfg Config, rs *database.QueryResult) (*Figure, error) {
	xi := columnIndex(rs.Columns, cfg.X)
	if xi < 0 {
		return nil, fmt.Errorf("unknown column %q", cfg.X)
	}
	yi := columnIndex(rs.Columns, cfg.Y)
	if yi < 0 {
		return nil, fmt.Errorf("unknown column %q", cfg.Y)
	}

	points := make([]Point, 0, len(rs.Rows))
	for _, row := range rs.Rows {
		if xi >= len(row) || yi >= len(row) {
			continue
		}
		x, ok := toNumber(row[xi])
		if !ok {
			continue
		}
		y, ok := toNumber(row[yi])
		if !ok {
			continue
		}
		points = append(points, Point{Label: formatNumber(x), X: x, Y: y})
	}
	if len(points) == 0 {
		return nil, nil
	}

	if cfg.Sort {
		if cfg.Direction == Descending {
			sort.SliceStable(points, func(i, j int) bool { return points[i].X > points[j].X })
		} else {
			sort.SliceStable(points, func(i, j int) bool { return points[i].X < points[j].X })
		}
	}

	fig := &Figure{
		Kind:      cfg.Kind,
		Title:     cfg.Title(),
		XLabel:    cfg.X,
		YLabel:    cfg.Y,
		Points:    points,
		Legend:    cfg.Legend,
		Grid:      cfg.Grid,
		Labels:    cfg.Labels,
		LineStyle: cfg.LineStyle,
		Palette:   cfg.Theme.Palette(),
	}
	if cfg.Kind == Pie {
		fig.Legend, fig.Grid = false, false
	}
	return fig, nil
}

func columnIndex(cols []string, name string) int {
	for i, c := range cols {
		if c == name {
			return i
		}
	}
	return -1
}

// toNumber coerces a driver value to float64. NULL, NaN and unparseable
// text fail.
func toNumber(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case int64:
		f = float64(n)
	case int32:
		f = float64(n)
	case int:
		f = float64(n)
	case uint64:
		f = float64(n)
	case float64:
		f = n
	case float32:
		f = float64(n)
	case bool:
		if n {
			f = 1
		}
	case []byte:
		return parseNumber(string(n))
	case string:
		return parseNumber(n)
	default:
		return 0, false
	}
	if math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

func parseNumber(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
