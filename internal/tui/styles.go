package tui

import "github.com/charmbracelet/lipgloss"

// Colors
var (
	primaryColor   = lipgloss.Color("#7C3AED") // Purple
	secondaryColor = lipgloss.Color("#10B981") // Green
	accentColor    = lipgloss.Color("#F59E0B") // Amber
	errorColor     = lipgloss.Color("#EF4444") // Red
	mutedColor     = lipgloss.Color("#6B7280") // Gray
	textColor      = lipgloss.Color("#F3F4F6") // Light gray
	bgColor        = lipgloss.Color("#1F2937") // Dark gray
)

// Pane styles
var (
	paneHeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(textColor)

	borderTitleStyle = lipgloss.NewStyle().
				Foreground(mutedColor)

	focusedBorderTitleStyle = lipgloss.NewStyle().
				Foreground(primaryColor).
				Bold(true)
)

// Tree styles
var (
	selectedItemStyle = lipgloss.NewStyle().
				Foreground(primaryColor).
				Bold(true)

	cursorItemStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#374151")).
			Foreground(textColor)

	normalItemStyle = lipgloss.NewStyle().
			Foreground(textColor)

	dimItemStyle = lipgloss.NewStyle().
			Foreground(mutedColor)
)

// Table styles
var (
	tableHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(textColor).
				BorderBottom(true).
				BorderStyle(lipgloss.NormalBorder()).
				BorderForeground(mutedColor)

	tableCellStyle = lipgloss.NewStyle().
			Foreground(textColor).
			PaddingRight(2)

	tableSelectedRowStyle = lipgloss.NewStyle().
				Background(lipgloss.Color("#374151")).
				Foreground(textColor)

	modeBadge = lipgloss.NewStyle().
			Background(secondaryColor).
			Foreground(lipgloss.Color("#FFF")).
			Padding(0, 1)

	structureBadge = lipgloss.NewStyle().
			Background(accentColor).
			Foreground(lipgloss.Color("#000")).
			Padding(0, 1)
)

// Status bar styles
var (
	statusBarStyle = lipgloss.NewStyle().
			Background(bgColor).
			Foreground(textColor).
			Padding(0, 1)

	statusKeyStyle = lipgloss.NewStyle().
			Foreground(accentColor).
			Bold(true)

	statusValueStyle = lipgloss.NewStyle().
				Foreground(textColor)

	busyStyle = lipgloss.NewStyle().
			Foreground(accentColor)
)

// Query bar styles
var (
	queryPromptStyle = lipgloss.NewStyle().
				Foreground(primaryColor).
				Bold(true)

	queryInputStyle = lipgloss.NewStyle().
			Foreground(textColor)
)

// Modal styles
var (
	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(primaryColor).
			Padding(1, 2)

	errorModalStyle = modalStyle.
			BorderForeground(errorColor)

	labelStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Width(14)

	focusedLabelStyle = labelStyle.
				Foreground(primaryColor).
				Bold(true)

	previewStyle = lipgloss.NewStyle().
			Foreground(accentColor)

	helpKeyStyle = lipgloss.NewStyle().
			Foreground(accentColor).
			Bold(true)
)

// Message styles
var (
	errorStyle = lipgloss.NewStyle().
			Foreground(errorColor).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(secondaryColor)
)

var titleStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(primaryColor)
