// Package chart turns the workbench result set into bar, line and pie
// figures and renders them to the terminal or to an HTML page.
package chart

import (
	"fmt"
	"strings"
)

// Kind is the chart type.
type Kind int

const (
	Bar Kind = iota
	Line
	Pie
)

var kindNames = []string{"Bar", "Line", "Pie"}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// ParseKind accepts a kind name in any case.
func ParseKind(s string) (Kind, error) {
	for i, name := range kindNames {
		if strings.EqualFold(s, name) {
			return Kind(i), nil
		}
	}
	return Bar, fmt.Errorf("unknown chart kind %q", s)
}

// Direction is the sort order applied to x.
type Direction int

const (
	Ascending Direction = iota
	Descending
)

func (d Direction) String() string {
	if d == Descending {
		return "desc"
	}
	return "asc"
}

// ParseDirection accepts asc or desc.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(s) {
	case "asc", "ascending":
		return Ascending, nil
	case "desc", "descending":
		return Descending, nil
	}
	return Ascending, fmt.Errorf("unknown sort direction %q", s)
}

// LineStyle applies to line charts only.
type LineStyle int

const (
	Solid LineStyle = iota
	Dashed
	Dotted
)

var lineStyleNames = []string{"solid", "dashed", "dotted"}

func (s LineStyle) String() string {
	if s < 0 || int(s) >= len(lineStyleNames) {
		return "solid"
	}
	return lineStyleNames[s]
}

// ParseLineStyle accepts solid, dashed or dotted.
func ParseLineStyle(s string) (LineStyle, error) {
	for i, name := range lineStyleNames {
		if strings.EqualFold(s, name) {
			return LineStyle(i), nil
		}
	}
	return Solid, fmt.Errorf("unknown line style %q", s)
}

// Theme selects a palette.
type Theme int

const (
	ThemeDefault Theme = iota
	ThemeDark
	ThemeColorful
)

var themeNames = []string{"default", "dark", "colorful"}

func (t Theme) String() string {
	if t < 0 || int(t) >= len(themeNames) {
		return "default"
	}
	return themeNames[t]
}

// ParseTheme accepts default, dark or colorful.
func ParseTheme(s string) (Theme, error) {
	for i, name := range themeNames {
		if strings.EqualFold(s, name) {
			return Theme(i), nil
		}
	}
	return ThemeDefault, fmt.Errorf("unknown theme %q", s)
}

// Palette is the background and text color of a theme.
type Palette struct {
	Background string
	Foreground string
}

// Palette returns the theme colors as hex strings.
func (t Theme) Palette() Palette {
	switch t {
	case ThemeDark:
		return Palette{Background: "#000000", Foreground: "#ffffff"}
	case ThemeColorful:
		return Palette{Background: "#f0f0f0", Foreground: "#000000"}
	default:
		return Palette{Background: "#ffffff", Foreground: "#000000"}
	}
}

// Config is an immutable chart configuration. The With methods return a
// modified copy.
type Config struct {
	Kind      Kind
	X         string
	Y         string
	Sort      bool
	Direction Direction
	Legend    bool
	Grid      bool
	Labels    bool
	LineStyle LineStyle
	Theme     Theme
}

// DefaultConfig returns a bar chart with legend and grid on and no axes.
func DefaultConfig() Config {
	return Config{
		Kind:   Bar,
		Legend: true,
		Grid:   true,
	}
}

func (c Config) WithKind(k Kind) Config           { c.Kind = k; return c }
func (c Config) WithX(col string) Config          { c.X = col; return c }
func (c Config) WithY(col string) Config          { c.Y = col; return c }
func (c Config) WithSort(on bool) Config          { c.Sort = on; return c }
func (c Config) WithDirection(d Direction) Config { c.Direction = d; return c }
func (c Config) WithLegend(on bool) Config        { c.Legend = on; return c }
func (c Config) WithGrid(on bool) Config          { c.Grid = on; return c }
func (c Config) WithLabels(on bool) Config        { c.Labels = on; return c }
func (c Config) WithLineStyle(s LineStyle) Config { c.LineStyle = s; return c }
func (c Config) WithTheme(t Theme) Config         { c.Theme = t; return c }

// Ready reports whether both axes are chosen.
func (c Config) Ready() bool {
	return c.X != "" && c.Y != ""
}

// Title is "<Kind> - <y> vs <x>".
func (c Config) Title() string {
	return fmt.Sprintf("%s - %s vs %s", c.Kind, c.Y, c.X)
}
