package chart

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
)

var (
	barColor  = lipgloss.Color("#1f77b4")
	lineColor = asciigraph.Green

	// Wedge colors cycle through a tab10-like set.
	wedgeColors = []lipgloss.Color{
		"#1f77b4", "#ff7f0e", "#2ca02c", "#d62728", "#9467bd",
		"#8c564b", "#e377c2", "#7f7f7f", "#bcbd22", "#17becf",
	}
)

// RenderTerminal draws fig in roughly width x height cells.
func RenderTerminal(fig *Figure, width, height int) (string, error) {
	if fig == nil {
		return "", errors.New("no figure")
	}
	if width < 20 {
		width = 20
	}
	if height < 4 {
		height = 4
	}

	var body string
	var err error
	switch fig.Kind {
	case Bar:
		body, err = renderBars(fig, width)
	case Line:
		body, err = renderLine(fig, width, height)
	case Pie:
		body, err = renderPie(fig, width)
	default:
		err = fmt.Errorf("unsupported chart kind %v", fig.Kind)
	}
	if err != nil {
		return "", err
	}

	theme := lipgloss.NewStyle().
		Background(lipgloss.Color(fig.Palette.Background)).
		Foreground(lipgloss.Color(fig.Palette.Foreground)).
		Padding(0, 1)
	title := lipgloss.NewStyle().Bold(true).Render(fig.Title)

	parts := []string{title, body}
	if fig.Legend {
		parts = append(parts, lipgloss.NewStyle().Foreground(barColor).Render("■")+" "+fig.YLabel)
	}
	return theme.Render(lipgloss.JoinVertical(lipgloss.Left, parts...)), nil
}

func renderBars(fig *Figure, width int) (string, error) {
	labelWidth := 0
	maxAbs := 0.0
	for _, p := range fig.Points {
		labelWidth = max(labelWidth, lipgloss.Width(p.Label))
		maxAbs = math.Max(maxAbs, math.Abs(p.Y))
	}
	valueWidth := 0
	if fig.Labels {
		valueWidth = 12
	}
	barWidth := width - labelWidth - valueWidth - 3
	if barWidth < 4 {
		return "", fmt.Errorf("chart too narrow for %d-wide labels", labelWidth)
	}

	bar := lipgloss.NewStyle().Foreground(barColor)
	neg := lipgloss.NewStyle().Foreground(lipgloss.Color("#d62728"))

	var b strings.Builder
	for _, p := range fig.Points {
		n := 0
		if maxAbs > 0 {
			n = int(math.Round(math.Abs(p.Y) / maxAbs * float64(barWidth)))
		}
		style := bar
		if p.Y < 0 {
			style = neg
		}
		fmt.Fprintf(&b, "%*s │%s", labelWidth, p.Label, style.Render(strings.Repeat("█", n)))
		if fig.Labels {
			fmt.Fprintf(&b, " %.1f", p.Y)
		}
		b.WriteByte('\n')
	}

	if fig.Grid {
		b.WriteString(strings.Repeat(" ", labelWidth+1) + "└" + scale(barWidth) + "\n")
		b.WriteString(strings.Repeat(" ", labelWidth+2) + fmt.Sprintf("0%*s", barWidth-1, formatNumber(maxAbs)) + "\n")
	}
	fmt.Fprintf(&b, "%s by %s", fig.YLabel, fig.XLabel)
	return b.String(), nil
}

// scale draws an axis with a tick at every quarter.
func scale(width int) string {
	runes := []rune(strings.Repeat("─", width))
	for q := 1; q <= 4; q++ {
		i := q*width/4 - 1
		if i >= 0 && i < len(runes) {
			runes[i] = '┴'
		}
	}
	return string(runes)
}

func renderLine(fig *Figure, width, height int) (string, error) {
	ys := make([]float64, len(fig.Points))
	for i, p := range fig.Points {
		ys[i] = p.Y
	}

	opts := []asciigraph.Option{
		asciigraph.Width(width - 12),
		asciigraph.Height(height),
		asciigraph.SeriesColors(lineColor),
		asciigraph.Caption(fmt.Sprintf("%s: %s … %s", fig.XLabel, fig.Points[0].Label, fig.Points[len(fig.Points)-1].Label)),
	}
	if fig.Palette.Foreground == "#ffffff" {
		opts = append(opts, asciigraph.LabelColor(asciigraph.White), asciigraph.CaptionColor(asciigraph.White))
	} else {
		opts = append(opts, asciigraph.LabelColor(asciigraph.Black), asciigraph.CaptionColor(asciigraph.Black))
	}
	if fig.Grid {
		opts = append(opts, asciigraph.AxisColor(asciigraph.Gray))
	}
	plot := asciigraph.Plot(ys, opts...)

	switch fig.LineStyle {
	case Dashed:
		plot = strings.ReplaceAll(plot, "─", "╌")
	case Dotted:
		plot = strings.ReplaceAll(plot, "─", "┈")
	}

	if !fig.Labels {
		return plot, nil
	}
	labels := make([]string, len(fig.Points))
	for i, p := range fig.Points {
		labels[i] = fmt.Sprintf("%s=%.1f", p.Label, p.Y)
	}
	return plot + "\n" + lipgloss.NewStyle().Width(width).Render(strings.Join(labels, "  ")), nil
}

func renderPie(fig *Figure, width int) (string, error) {
	total := 0.0
	labelWidth := 0
	for _, p := range fig.Points {
		if p.Y < 0 {
			return "", fmt.Errorf("pie wedge %s is negative (%g)", p.Label, p.Y)
		}
		total += p.Y
		labelWidth = max(labelWidth, lipgloss.Width(p.Label))
	}
	if total == 0 {
		return "", errors.New("pie values sum to zero")
	}

	barWidth := width - labelWidth - 10
	if barWidth < 4 {
		return "", fmt.Errorf("chart too narrow for %d-wide labels", labelWidth)
	}

	var b strings.Builder
	var strip strings.Builder
	for i, p := range fig.Points {
		share := p.Y / total
		color := lipgloss.NewStyle().Foreground(wedgeColors[i%len(wedgeColors)])
		n := int(math.Round(share * float64(barWidth)))
		strip.WriteString(color.Render(strings.Repeat("█", n)))
		fmt.Fprintf(&b, "%s %-*s %5.1f%%\n", color.Render("●"), labelWidth, p.Label, share*100)
	}
	return strip.String() + "\n\n" + strings.TrimRight(b.String(), "\n"), nil
}
