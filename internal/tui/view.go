package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
	"github.com/johan-st/sqlhelper/internal/workbench"
)

const minColWidth = 8

func (a *App) treeWidth() int {
	maxLen := 6 // "Schema"
	for _, r := range a.treeRows {
		if n := len(r.node.Name) + 2*r.depth; n > maxLen {
			maxLen = n
		}
	}
	// "> " or "▸ " prefix, padding and borders
	w := maxLen + 7
	if w > a.width/3 {
		w = a.width / 3
	}
	if w < 18 {
		w = 18
	}
	return w
}

func (a *App) dataWidth() int {
	return a.width - a.treeWidth() - 1
}

func (a *App) modalWidth() int {
	w := a.width * 3 / 4
	if w > 100 {
		w = 100
	}
	if w < 36 {
		w = 36
	}
	return w
}

func (a *App) updateSizes() {
	contentHeight := a.height - 2 // query (1) + status (1)
	dataWidth := a.dataWidth()

	// borders, title line and column indicator
	tableHeight := contentHeight - 4
	if tableHeight < 2 {
		tableHeight = 2
	}
	a.dataTable.SetHeight(tableHeight)
	a.dataTable.SetWidth(dataWidth - 4)
	a.query.Width = a.width - 8

	a.visibleCols = (dataWidth - 4) / (minColWidth + 1)
	if a.visibleCols < 1 {
		a.visibleCols = 1
	}

	if a.settings != nil {
		a.settings.setWidth(a.modalWidth())
	}
	if a.rowForm != nil {
		a.rowForm.inputs.setWidth(a.modalWidth())
	}
	if a.chartView != nil {
		a.chartView.resize(a.modalWidth(), a.height)
	}
	a.help.Width = a.modalWidth()
	a.updateDataTable()
}

// updateDataTable loads the visible column window of the current display
// into the table component.
func (a *App) updateDataTable() {
	d := a.display
	if d == nil || (d.Kind != workbench.DisplayRows && d.Kind != workbench.DisplayStructure) || len(d.Columns) == 0 {
		a.dataTable.SetRows([]table.Row{})
		a.dataTable.SetColumns([]table.Column{})
		return
	}

	totalCols := len(d.Columns)
	if a.colOffset >= totalCols {
		a.colOffset = totalCols - 1
	}
	if a.colOffset < 0 {
		a.colOffset = 0
	}
	endCol := a.colOffset + a.visibleCols
	if endCol > totalCols {
		endCol = totalCols
	}
	visible := endCol - a.colOffset

	maxColWidth := a.dataWidth() - 6
	widths := make([]int, visible)
	for i := range widths {
		src := a.colOffset + i
		w := len(d.Columns[src])
		for _, row := range d.Rows {
			if src < len(row) && len(row[src]) > w {
				w = len(row[src])
			}
		}
		if w > maxColWidth {
			w = maxColWidth
		}
		if w < minColWidth {
			w = minColWidth
		}
		widths[i] = w
	}

	columns := make([]table.Column, visible)
	for i := range columns {
		columns[i] = table.Column{
			Title: truncateString(d.Columns[a.colOffset+i], widths[i]-2),
			Width: widths[i],
		}
	}
	rows := make([]table.Row, len(d.Rows))
	for r, row := range d.Rows {
		cells := make([]string, visible)
		for j := range cells {
			if src := a.colOffset + j; src < len(row) {
				cells[j] = truncateString(row[src], widths[j]-2)
			}
		}
		rows[r] = cells
	}

	cursor := a.dataTable.Cursor()
	// Rows first: bubbles/table indexes rows by the column count.
	a.dataTable.SetRows([]table.Row{})
	a.dataTable.SetColumns(columns)
	a.dataTable.SetRows(rows)
	if cursor >= len(rows) {
		cursor = len(rows) - 1
	}
	if cursor < 0 {
		cursor = 0
	}
	a.dataTable.SetCursor(cursor)
}

// View implements tea.Model.
func (a *App) View() string {
	if a.width < 40 || a.height < 10 {
		return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center,
			errorStyle.Render("Terminal too small\nMin: 40x10"))
	}

	switch a.modal {
	case modalHelp:
		return a.place(modalStyle, "Help", a.help.FullHelpView(a.keys.FullHelp())+
			"\n\n"+dimItemStyle.Render("Press ? or Esc to close"))
	case modalError:
		return a.place(errorModalStyle, "Error", errorStyle.Render(a.errText)+
			"\n\n"+dimItemStyle.Render("Press Enter or Esc to close"))
	case modalSettings:
		return a.place(modalStyle, "Connection settings", a.renderSettings())
	case modalRowForm:
		return a.place(modalStyle, a.rowForm.title(), a.renderRowForm())
	case modalDelete:
		return a.place(errorModalStyle, "Delete row", a.renderDelete())
	case modalAI:
		return a.place(modalStyle, "Ask AI", a.renderAI())
	case modalChart:
		return a.place(modalStyle, a.chartView.composer.Config().Title(), a.chartView.view())
	}

	contentHeight := a.height - 2
	treeWidth := a.treeWidth()
	content := lipgloss.JoinHorizontal(lipgloss.Top,
		a.renderTreePane(treeWidth, contentHeight),
		" ",
		a.renderDataPane(a.dataWidth(), contentHeight),
	)

	var b strings.Builder
	b.WriteString(content)
	b.WriteString("\n")
	b.WriteString(a.renderQueryBar())
	b.WriteString("\n")
	b.WriteString(a.renderStatusBar())
	return b.String()
}

func (a *App) place(style lipgloss.Style, title, body string) string {
	box := style.Width(a.modalWidth()).Render(titleStyle.Render(title) + "\n\n" + body)
	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, box)
}

func (a *App) renderTreePane(width, height int) string {
	focused := a.focus == FocusTree
	visibleHeight := height - 2
	if visibleHeight < 1 {
		visibleHeight = 1
	}

	var content strings.Builder
	if len(a.treeRows) == 0 {
		if a.wb.Connected() {
			content.WriteString(dimItemStyle.Render(" No databases"))
		} else {
			content.WriteString(dimItemStyle.Render(" Not connected\n c: settings"))
		}
		return a.renderPaneWithTitle(content.String(), width, height, "Schema", focused)
	}

	offset := 0
	if a.treeCursor >= visibleHeight {
		offset = a.treeCursor - visibleHeight + 1
	}
	end := offset + visibleHeight
	if end > len(a.treeRows) {
		end = len(a.treeRows)
	}

	sel := a.wb.Selection()
	for i := offset; i < end; i++ {
		r := a.treeRows[i]
		var label string
		if r.node.Kind == workbench.NodeDatabase {
			marker := "▾ "
			if a.collapsed[r.node.Name] {
				marker = "▸ "
			}
			label = marker + r.node.Name
		} else {
			label = "  " + r.node.Name
		}
		label = truncateString(label, width-6)

		style := normalItemStyle
		if r.node.Kind == workbench.NodeTable && r.node.Parent != nil &&
			r.node.Parent.Name == sel.Database && r.node.Name == sel.Table {
			style = selectedItemStyle
		}
		if i == a.treeCursor && focused {
			style = style.Inherit(cursorItemStyle)
			label = "> " + label
		} else {
			label = "  " + label
		}
		content.WriteString(style.Render(label))
		if i < end-1 {
			content.WriteString("\n")
		}
	}
	return a.renderPaneWithTitle(content.String(), width, height, "Schema", focused)
}

func (a *App) renderDataPane(width, height int) string {
	focused := a.focus == FocusData
	title := "Data"
	if !a.wb.Selection().Empty() {
		title = a.wb.Selection().String()
	}

	d := a.display
	var content strings.Builder

	badge := modeBadge.Render(workbench.ModeData.String())
	if a.wb.Mode() == workbench.ModeStructure {
		badge = structureBadge.Render(workbench.ModeStructure.String())
	}
	content.WriteString(badge)

	switch {
	case d == nil:
		content.WriteString("\n\n")
		content.WriteString(dimItemStyle.Render("Select a table or press / to run a query."))
	case d.Kind == workbench.DisplayEmpty:
		content.WriteString("\n\n")
		content.WriteString(dimItemStyle.Render(d.Message))
	case d.Kind == workbench.DisplayStatus:
		content.WriteString("\n\n")
		content.WriteString(successStyle.Render(d.Message))
		content.WriteString("\n")
		content.WriteString(dimItemStyle.Render(fmt.Sprintf("%d rows affected", d.RowsAffected)))
	default:
		totalCols := len(d.Columns)
		endCol := a.colOffset + a.visibleCols
		if endCol > totalCols {
			endCol = totalCols
		}
		if a.colOffset > 0 || endCol < totalCols {
			left, right := "", ""
			if a.colOffset > 0 {
				left = fmt.Sprintf("← %d ", a.colOffset)
			}
			if endCol < totalCols {
				right = fmt.Sprintf(" %d →", totalCols-endCol)
			}
			content.WriteString(" ")
			content.WriteString(dimItemStyle.Render(fmt.Sprintf("%scols %d-%d/%d%s", left, a.colOffset+1, endCol, totalCols, right)))
		}
		content.WriteString("\n")
		content.WriteString(a.dataTable.View())
	}

	return a.renderPaneWithTitle(content.String(), width, height, title, focused)
}

// buildBorderTitle builds a top border line with title embedded.
func buildBorderTitle(width int, title string, focused bool) string {
	border := lipgloss.RoundedBorder()
	borderColor, style := mutedColor, borderTitleStyle
	if focused {
		borderColor, style = primaryColor, focusedBorderTitleStyle
	}
	borderStyle := lipgloss.NewStyle().Foreground(borderColor)

	titleRendered := style.Render(truncateString(title, width-6))
	remaining := width - 5 - lipgloss.Width(titleRendered)
	if remaining < 0 {
		remaining = 0
	}

	var b strings.Builder
	b.WriteString(borderStyle.Render(border.TopLeft + border.Top))
	b.WriteString(" ")
	b.WriteString(titleRendered)
	b.WriteString(" ")
	b.WriteString(borderStyle.Render(strings.Repeat(border.Top, remaining) + border.TopRight))
	return b.String()
}

// renderPaneWithTitle renders content in a pane with a title in the top border
func (a *App) renderPaneWithTitle(content string, width, height int, title string, focused bool) string {
	border := lipgloss.RoundedBorder()
	borderColor := mutedColor
	if focused {
		borderColor = primaryColor
	}
	borderStyle := lipgloss.NewStyle().Foreground(borderColor)

	innerWidth := width - 2
	innerHeight := height - 2
	if innerWidth < 1 {
		innerWidth = 1
	}
	if innerHeight < 1 {
		innerHeight = 1
	}

	lines := strings.Split(content, "\n")
	for len(lines) < innerHeight {
		lines = append(lines, "")
	}
	lines = lines[:innerHeight]

	var b strings.Builder
	b.WriteString(buildBorderTitle(width, title, focused))
	b.WriteString("\n")
	for _, line := range lines {
		padded := " " + line
		if w := lipgloss.Width(padded); w < innerWidth {
			padded += strings.Repeat(" ", innerWidth-w)
		} else if w > innerWidth {
			padded = lipgloss.NewStyle().MaxWidth(innerWidth).Render(padded)
		}
		b.WriteString(borderStyle.Render(border.Left))
		b.WriteString(padded)
		b.WriteString(borderStyle.Render(border.Right))
		b.WriteString("\n")
	}
	b.WriteString(borderStyle.Render(border.BottomLeft + strings.Repeat(border.Bottom, innerWidth) + border.BottomRight))
	return b.String()
}

func (a *App) renderQueryBar() string {
	prompt := queryPromptStyle.Render("SQL> ")
	if a.queryActive {
		return prompt + queryInputStyle.Render(a.query.View())
	}
	if a.note != "" {
		if a.noteErr {
			return prompt + errorStyle.Render(truncateString(a.note, a.width-6))
		}
		return prompt + successStyle.Render(truncateString(a.note, a.width-6))
	}
	return prompt + dimItemStyle.Render("Press / to query")
}

func (a *App) renderStatusBar() string {
	left := []string{titleStyle.Render("sqlhelper")}
	if a.user != "" {
		left = append(left, dimItemStyle.Render(a.user))
	}
	if t := a.wb.Target(); t != "" {
		left = append(left, statusKeyStyle.Render(t))
	}

	var right []string
	if a.busy {
		right = append(right, a.spinner.View()+busyStyle.Render(a.label+", please wait"))
	}
	if sel := a.wb.Selection(); !sel.Empty() {
		right = append(right, statusValueStyle.Render(sel.String()))
	}
	if d := a.display; d != nil && len(d.Rows) > 0 {
		right = append(right, dimItemStyle.Render(fmt.Sprintf("| row %d/%d", a.dataTable.Cursor()+1, len(d.Rows))))
	}
	right = append(right, dimItemStyle.Render("| ?:help q:quit"))

	l := strings.Join(left, " ")
	r := strings.Join(right, " ")
	padding := a.width - lipgloss.Width(l) - lipgloss.Width(r) - 2
	if padding < 1 {
		padding = 1
	}
	return statusBarStyle.Width(a.width).Render(l + strings.Repeat(" ", padding) + r)
}

func (a *App) renderSettings() string {
	var b strings.Builder
	b.WriteString(a.settings.view())
	if a.settingsErr != nil {
		b.WriteString("\n\n")
		b.WriteString(errorStyle.Render(a.settingsErr.Error()))
	}
	b.WriteString("\n\n")
	b.WriteString(dimItemStyle.Render("tab: next  ctrl+s: connect  esc: cancel"))
	return b.String()
}

func (a *App) renderRowForm() string {
	rf := a.rowForm
	var b strings.Builder
	b.WriteString(rf.inputs.view())
	if a.rowPreview != "" {
		b.WriteString("\n\n")
		b.WriteString(previewStyle.Render(a.rowPreview))
	}
	if rf.err != nil {
		b.WriteString("\n\n")
		b.WriteString(errorStyle.Render(rf.err.Error()))
	}
	b.WriteString("\n\n")
	hint := "tab: next  enter: save  esc: cancel"
	if rf.form.Kind == workbench.FormUpdate {
		hint = "tab: next  ctrl+k: match on field  enter: save  esc: cancel"
	}
	b.WriteString(dimItemStyle.Render(hint))
	return b.String()
}

func (a *App) renderDelete() string {
	p := a.deleting
	var b strings.Builder
	fmt.Fprintf(&b, "Delete row %d of %s where %s = %v?\n\n", p.RowIndex+1, p.Selection, p.KeyColumn, p.KeyValue)
	b.WriteString(previewStyle.Render(p.Statement.Preview))
	b.WriteString("\n\n")
	b.WriteString(dimItemStyle.Render("y: delete  k: match on next column  n/esc: cancel"))
	return b.String()
}

func (a *App) renderAI() string {
	p := a.aiPanel
	var b strings.Builder
	b.WriteString(dimItemStyle.Render("Table: " + a.wb.Selection().String()))
	b.WriteString("\n\n")
	b.WriteString(p.input.View())

	if p.reviewing() {
		b.WriteString("\n\n")
		b.WriteString(previewStyle.Render(p.statement))
		if p.exchange.Explanation != "" {
			b.WriteString("\n\n")
			b.WriteString(normalItemStyle.Render(p.exchange.Explanation))
		}
	}
	if p.err != nil {
		b.WriteString("\n\n")
		b.WriteString(errorStyle.Render(p.err.Error()))
	}

	b.WriteString("\n\n")
	if p.reviewing() {
		b.WriteString(dimItemStyle.Render("enter/y: run  e: edit request  esc: discard"))
	} else {
		b.WriteString(dimItemStyle.Render("enter: generate  esc: close"))
	}
	return b.String()
}

// truncateString truncates a string to maxLen runes, adding ellipsis if needed
func truncateString(s string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-1]) + "…"
}
