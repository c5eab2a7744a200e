// Package tui is the interactive terminal surface. It holds only view state;
// everything about the database session lives in the workbench, which the
// App drives through background commands.
package tui

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"
	"github.com/johan-st/sqlhelper/internal/ai"
	"github.com/johan-st/sqlhelper/internal/apperr"
	"github.com/johan-st/sqlhelper/internal/chart"
	"github.com/johan-st/sqlhelper/internal/config"
	"github.com/johan-st/sqlhelper/internal/history"
	"github.com/johan-st/sqlhelper/internal/workbench"
	"go.uber.org/zap"
)

// Focus represents which pane is focused
type Focus int

const (
	FocusTree Focus = iota
	FocusData
)

type modal int

const (
	modalNone modal = iota
	modalHelp
	modalError
	modalSettings
	modalRowForm
	modalDelete
	modalAI
	modalChart
)

const historyRecall = 100

// Options configures an App.
type Options struct {
	Bridge   *ai.Bridge
	Recorder *history.Recorder
	Logger   *zap.Logger
	User     string
	Width    int
	Height   int

	// ExportDir is where the chart view writes HTML pages. Empty disables
	// export.
	ExportDir string

	// Context bounds every database and network call.
	Context context.Context
}

type treeRow struct {
	node  *workbench.SchemaNode
	depth int
}

// App is the main TUI application model.
type App struct {
	// Dependencies
	wb       *workbench.Workbench
	bridge   *ai.Bridge
	recorder *history.Recorder
	logger   *zap.Logger
	ctx      context.Context
	user     string
	export   string

	// Window size
	width, height int

	// Tree state
	focus      Focus
	treeRows   []treeRow
	treeCursor int
	collapsed  map[string]bool

	// Main panel
	display     *workbench.Display
	dataTable   table.Model
	colOffset   int
	visibleCols int

	// Query bar
	query        textinput.Model
	queryActive  bool
	queryHistory []string
	historyIdx   int // -1 = current input
	historyDraft string

	// Status
	note    string
	noteErr bool
	busy    bool
	label   string
	spinner spinner.Model
	reload  *config.Config // config reload deferred while busy

	// Modals
	modal       modal
	errText     string
	settings    *inputForm
	settingsErr error
	rowForm     *rowForm
	rowPreview  string
	deleting    *workbench.PendingDelete
	aiPanel     *aiPanel
	chartView   *chartView
	help        help.Model

	keys KeyMap
}

// NewApp creates a new TUI application over wb.
func NewApp(wb *workbench.Workbench, opts Options) *App {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	bridge := opts.Bridge
	if bridge == nil {
		bridge = ai.NewBridge(wb, opts.Recorder, logger)
	}

	dataTable := table.New(
		table.WithColumns([]table.Column{}),
		table.WithRows([]table.Row{}),
		table.WithFocused(false),
	)
	dataTable.SetStyles(table.Styles{
		Header:   tableHeaderStyle,
		Cell:     tableCellStyle,
		Selected: tableSelectedRowStyle,
	})

	query := textinput.New()
	query.Prompt = ""
	query.Placeholder = "SELECT ..."

	a := &App{
		wb:         wb,
		bridge:     bridge,
		recorder:   opts.Recorder,
		logger:     logger.Named("tui"),
		ctx:        ctx,
		user:       opts.User,
		export:     opts.ExportDir,
		width:      opts.Width,
		height:     opts.Height,
		focus:      FocusTree,
		collapsed:  make(map[string]bool),
		dataTable:  dataTable,
		query:      query,
		historyIdx: -1,
		spinner:    spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(busyStyle)),
		help:       help.New(),
		keys:       DefaultKeyMap(),
	}
	a.updateSizes()
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(a.start("connecting", a.connectCmd()), a.loadHistory())
}

// start marks the app busy and runs cmd in the background. Key presses are
// ignored until its message arrives.
func (a *App) start(label string, cmd tea.Cmd) tea.Cmd {
	a.busy = true
	a.label = label
	return tea.Batch(a.spinner.Tick, cmd)
}

// idle clears the busy state and applies a deferred config reload.
func (a *App) idle() tea.Cmd {
	a.busy = false
	a.label = ""
	if a.reload != nil {
		cfg := *a.reload
		a.reload = nil
		return a.start("reconnecting", a.reconfigureCmd(cfg))
	}
	return nil
}

// Background commands. They only touch the workbench and bridge, never App
// fields.

func (a *App) connectCmd() tea.Cmd {
	wb, ctx := a.wb, a.ctx
	return func() tea.Msg {
		return connectedMsg{err: wb.Connect(ctx)}
	}
}

func (a *App) reconfigureCmd(cfg config.Config) tea.Cmd {
	wb, ctx := a.wb, a.ctx
	return func() tea.Msg {
		return connectedMsg{err: wb.Reconfigure(ctx, cfg)}
	}
}

func (a *App) refreshCmd() tea.Cmd {
	wb, ctx := a.wb, a.ctx
	return func() tea.Msg {
		d, err := wb.Refresh(ctx)
		return displayMsg{op: "refresh", display: d, err: err, quietErr: true}
	}
}

func (a *App) reloadTreeCmd() tea.Cmd {
	wb, ctx := a.wb, a.ctx
	return func() tea.Msg {
		_, err := wb.LoadDatabases(ctx)
		return displayMsg{op: "reload", err: err, treeMay: true}
	}
}

func (a *App) toggleCmd() tea.Cmd {
	wb, ctx := a.wb, a.ctx
	return func() tea.Msg {
		d, err := wb.ToggleMode(ctx)
		return displayMsg{op: "toggle", display: d, err: err, quietErr: true}
	}
}

func (a *App) executeCmd(sqlText string) tea.Cmd {
	wb, ctx := a.wb, a.ctx
	return func() tea.Msg {
		d, err := wb.Execute(ctx, sqlText)
		return displayMsg{op: "execute", display: d, err: err, treeMay: true}
	}
}

func (a *App) prepareInsertCmd() tea.Cmd {
	wb, ctx := a.wb, a.ctx
	return func() tea.Msg {
		form, err := wb.PrepareInsert(ctx)
		return formReadyMsg{form: form, err: err}
	}
}

func (a *App) prepareUpdateCmd(row int) tea.Cmd {
	wb, ctx := a.wb, a.ctx
	return func() tea.Msg {
		form, err := wb.PrepareUpdate(ctx, row)
		return formReadyMsg{form: form, err: err}
	}
}

func (a *App) prepareDeleteCmd(row int) tea.Cmd {
	wb, ctx := a.wb, a.ctx
	return func() tea.Msg {
		pending, err := wb.PrepareDelete(ctx, row)
		return deletePreparedMsg{pending: pending, err: err}
	}
}

func (a *App) submitRowCmd(form *workbench.Form, values []string) tea.Cmd {
	wb, ctx := a.wb, a.ctx
	return func() tea.Msg {
		var (
			d   *workbench.Display
			err error
		)
		if form.Kind == workbench.FormUpdate {
			d, err = wb.Update(ctx, form, values)
		} else {
			d, err = wb.Insert(ctx, form, values)
		}
		return displayMsg{op: "row", display: d, err: err}
	}
}

func (a *App) deleteCmd(pending *workbench.PendingDelete) tea.Cmd {
	wb, ctx := a.wb, a.ctx
	return func() tea.Msg {
		d, err := wb.Delete(ctx, pending)
		return displayMsg{op: "delete", display: d, err: err}
	}
}

func (a *App) generateCmd(request string) tea.Cmd {
	bridge, ctx := a.bridge, a.ctx
	return func() tea.Msg {
		ex, err := bridge.Generate(ctx, request)
		return generatedMsg{exchange: ex, err: err}
	}
}

func (a *App) runGeneratedCmd() tea.Cmd {
	bridge, ctx := a.bridge, a.ctx
	return func() tea.Msg {
		d, err := bridge.Execute(ctx)
		return displayMsg{op: "execute", display: d, err: err, treeMay: true}
	}
}

func (a *App) exportChartCmd(fig *chart.Figure, path string) tea.Cmd {
	return func() tea.Msg {
		return chartExportedMsg{path: path, err: chart.WriteHTMLFile(fig, path)}
	}
}

func (a *App) loadHistory() tea.Cmd {
	rec := a.recorder
	return func() tea.Msg {
		queries, err := rec.Recent(historyRecall)
		if err != nil {
			return queryHistoryMsg{}
		}
		return queryHistoryMsg{queries: queries}
	}
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.updateSizes()
		return a, nil

	case spinner.TickMsg:
		if !a.busy {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case tea.KeyMsg:
		return a.handleKey(msg)

	case connectedMsg:
		cmd := a.idle()
		a.setDisplay(nil)
		a.rebuildTree()
		if msg.err != nil {
			a.showError(msg.err)
			return a, cmd
		}
		a.setNote(fmt.Sprintf("connected to %s", a.wb.Target()), false)
		return a, cmd

	case displayMsg:
		cmd := a.idle()
		return a, tea.Batch(cmd, a.applyDisplay(msg))

	case formReadyMsg:
		cmd := a.idle()
		if msg.err != nil {
			a.showError(msg.err)
			return a, cmd
		}
		a.rowForm = newRowForm(msg.form)
		a.rowForm.inputs.setWidth(a.modalWidth())
		a.modal = modalRowForm
		a.updatePreview()
		return a, cmd

	case deletePreparedMsg:
		cmd := a.idle()
		if msg.err != nil {
			a.showError(msg.err)
			return a, cmd
		}
		a.deleting = msg.pending
		a.modal = modalDelete
		return a, cmd

	case generatedMsg:
		cmd := a.idle()
		if a.aiPanel == nil {
			return a, cmd
		}
		if msg.err != nil {
			a.aiPanel.err = msg.err
			return a, cmd
		}
		stmt, err := a.bridge.Statement()
		a.aiPanel.exchange = msg.exchange
		a.aiPanel.statement = stmt
		a.aiPanel.err = err
		a.aiPanel.input.Blur()
		return a, cmd

	case queryHistoryMsg:
		if msg.queries != nil {
			a.queryHistory = msg.queries
		}
		return a, nil

	case chartExportedMsg:
		cmd := a.idle()
		if a.chartView != nil {
			if msg.err != nil {
				a.chartView.note = "export failed: " + msg.err.Error()
			} else {
				a.chartView.note = "wrote " + msg.path
			}
		}
		return a, cmd

	case ConfigReloadedMsg:
		a.logger.Info("config reloaded, reconnecting")
		a.setNote("config reloaded", false)
		if a.busy {
			cfg := msg.Config
			a.reload = &cfg
			return a, nil
		}
		return a, a.start("reconnecting", a.reconfigureCmd(msg.Config))
	}

	return a, nil
}

// applyDisplay handles the end of any operation that may change the main
// panel.
func (a *App) applyDisplay(msg displayMsg) tea.Cmd {
	if msg.treeMay {
		a.rebuildTree()
	}
	if msg.display != nil {
		a.setDisplay(msg.display)
	}

	if msg.err != nil {
		if msg.quietErr && apperr.Is(msg.err, apperr.KindValidation) {
			return nil
		}
		if msg.op == "row" && a.rowForm != nil {
			a.rowForm.err = msg.err
			return nil
		}
		a.showError(msg.err)
		return nil
	}

	switch msg.op {
	case "row":
		a.closeModal()
		a.setNote("row saved", false)
	case "delete":
		a.setNote("row deleted", false)
	case "execute":
		a.queryActive = false
		a.query.Blur()
		if d := msg.display; d != nil {
			switch d.Kind {
			case workbench.DisplayStatus:
				a.setNote(fmt.Sprintf("%s (%s rows affected, %s)",
					d.Message, humanize.Comma(d.RowsAffected), d.Elapsed.Round(time.Millisecond)), false)
			case workbench.DisplayRows:
				a.setNote(fmt.Sprintf("%s rows in %s",
					humanize.Comma(int64(len(d.Rows))), d.Elapsed.Round(time.Millisecond)), false)
			}
		}
		return a.loadHistory()
	}
	return nil
}

func (a *App) setNote(note string, isErr bool) {
	a.note = note
	a.noteErr = isErr
}

func (a *App) showError(err error) {
	a.logger.Debug("showing error", zap.Error(err))
	a.errText = err.Error()
	a.modal = modalError
}

func (a *App) closeModal() {
	a.modal = modalNone
	a.settings = nil
	a.settingsErr = nil
	a.rowForm = nil
	a.rowPreview = ""
	a.deleting = nil
	a.aiPanel = nil
	a.chartView = nil
}

// rebuildTree flattens the workbench tree, hiding collapsed databases.
func (a *App) rebuildTree() {
	a.treeRows = a.treeRows[:0]
	for _, db := range a.wb.Tree() {
		a.treeRows = append(a.treeRows, treeRow{node: db})
		if a.collapsed[db.Name] {
			continue
		}
		for _, t := range db.Children {
			a.treeRows = append(a.treeRows, treeRow{node: t, depth: 1})
		}
	}
	if a.treeCursor >= len(a.treeRows) {
		a.treeCursor = len(a.treeRows) - 1
	}
	if a.treeCursor < 0 {
		a.treeCursor = 0
	}
}

func (a *App) setDisplay(d *workbench.Display) {
	a.display = d
	a.colOffset = 0
	a.updateDataTable()
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return a, tea.Quit
	}
	if a.busy {
		return a, nil
	}

	switch a.modal {
	case modalHelp:
		if key.Matches(msg, a.keys.Back, a.keys.Help, a.keys.Quit) {
			a.modal = modalNone
		}
		return a, nil
	case modalError:
		if key.Matches(msg, a.keys.Back, a.keys.Select, a.keys.Quit) {
			a.modal = modalNone
			a.errText = ""
		}
		return a, nil
	case modalSettings:
		return a.handleSettingsKey(msg)
	case modalRowForm:
		return a.handleRowFormKey(msg)
	case modalDelete:
		return a.handleDeleteKey(msg)
	case modalAI:
		return a.handleAIKey(msg)
	case modalChart:
		return a.handleChartKey(msg)
	}

	if a.queryActive {
		return a.handleQueryInput(msg)
	}

	switch {
	case key.Matches(msg, a.keys.Quit):
		return a, tea.Quit

	case key.Matches(msg, a.keys.Help):
		a.modal = modalHelp
		return a, nil

	case key.Matches(msg, a.keys.NextPane):
		if a.focus == FocusTree {
			a.focus = FocusData
			a.dataTable.Focus()
		} else {
			a.focus = FocusTree
			a.dataTable.Blur()
		}
		return a, nil

	case key.Matches(msg, a.keys.Up):
		if a.focus == FocusTree {
			if a.treeCursor > 0 {
				a.treeCursor--
			}
		} else {
			a.dataTable.MoveUp(1)
		}
		return a, nil

	case key.Matches(msg, a.keys.Down):
		if a.focus == FocusTree {
			if a.treeCursor < len(a.treeRows)-1 {
				a.treeCursor++
			}
		} else {
			a.dataTable.MoveDown(1)
		}
		return a, nil

	case key.Matches(msg, a.keys.Left):
		if a.focus == FocusData && a.colOffset > 0 {
			a.colOffset--
			a.updateDataTable()
		}
		return a, nil

	case key.Matches(msg, a.keys.Right):
		if a.focus == FocusData && a.display != nil && a.colOffset < len(a.display.Columns)-1 {
			a.colOffset++
			a.updateDataTable()
		}
		return a, nil

	case key.Matches(msg, a.keys.Select):
		return a.handleSelect()

	case key.Matches(msg, a.keys.Refresh):
		if a.wb.Selection().Empty() {
			return a, a.start("loading schema", a.reloadTreeCmd())
		}
		return a, a.start("refreshing", a.refreshCmd())

	case key.Matches(msg, a.keys.Structure):
		return a, a.start("loading", a.toggleCmd())

	case key.Matches(msg, a.keys.Query):
		a.queryActive = true
		a.historyIdx = -1
		a.historyDraft = ""
		a.query.SetValue("")
		return a, tea.Batch(a.query.Focus(), a.loadHistory())

	case key.Matches(msg, a.keys.Insert):
		return a, a.start("preparing form", a.prepareInsertCmd())

	case key.Matches(msg, a.keys.Edit):
		row, ok := a.cursorRow()
		if !ok {
			return a, nil
		}
		return a, a.start("loading row", a.prepareUpdateCmd(row))

	case key.Matches(msg, a.keys.Delete):
		row, ok := a.cursorRow()
		if !ok {
			return a, nil
		}
		return a, a.start("loading row", a.prepareDeleteCmd(row))

	case key.Matches(msg, a.keys.Assist):
		a.aiPanel = newAIPanel(a.modalWidth() - 6)
		if ex := a.bridge.Pending(); ex != nil {
			a.aiPanel.input.SetValue(ex.Request)
			a.aiPanel.exchange = ex
			a.aiPanel.statement, a.aiPanel.err = a.bridge.Statement()
			a.aiPanel.input.Blur()
		}
		a.modal = modalAI
		return a, textinput.Blink

	case key.Matches(msg, a.keys.Chart):
		rs := a.wb.ResultSet()
		if rs == nil || len(rs.Columns) == 0 {
			a.setNote("open a table or run a query to chart it", true)
			return a, nil
		}
		a.chartView = newChartView(rs, a.modalWidth(), a.height, a.logger)
		a.modal = modalChart
		return a, nil

	case key.Matches(msg, a.keys.Settings):
		a.settings = newSettingsForm(a.wb.Config())
		a.settings.setWidth(a.modalWidth())
		a.modal = modalSettings
		return a, textinput.Blink
	}

	if a.focus == FocusData {
		var cmd tea.Cmd
		a.dataTable, cmd = a.dataTable.Update(msg)
		return a, cmd
	}
	return a, nil
}

// cursorRow returns the data row under the cursor. Rows are only
// addressable in data mode.
func (a *App) cursorRow() (int, bool) {
	if a.wb.Mode() == workbench.ModeStructure {
		a.setNote("switch to the data view to edit rows", true)
		return 0, false
	}
	if a.display != nil && a.display.AdHoc {
		a.setNote("press r to show the table before editing rows", true)
		return 0, false
	}
	// The workbench reports an empty table or missing selection.
	return a.dataTable.Cursor(), true
}

func (a *App) handleSelect() (tea.Model, tea.Cmd) {
	if a.focus != FocusTree || a.treeCursor >= len(a.treeRows) {
		return a, nil
	}
	node := a.treeRows[a.treeCursor].node
	if node.Kind == workbench.NodeDatabase {
		a.collapsed[node.Name] = !a.collapsed[node.Name]
		a.rebuildTree()
		return a, nil
	}
	a.wb.Select(node)
	a.focus = FocusData
	a.dataTable.Focus()
	return a, a.start("loading "+node.Name, a.refreshCmd())
}

func (a *App) handleQueryInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		a.queryActive = false
		a.historyIdx = -1
		a.query.Blur()
		return a, nil

	case tea.KeyEnter:
		sqlText := a.query.Value()
		a.historyIdx = -1
		return a, a.start("running query", a.executeCmd(sqlText))

	case tea.KeyUp:
		if a.historyIdx < len(a.queryHistory)-1 {
			if a.historyIdx == -1 {
				a.historyDraft = a.query.Value()
			}
			a.historyIdx++
			a.query.SetValue(a.queryHistory[a.historyIdx])
			a.query.CursorEnd()
		}
		return a, nil

	case tea.KeyDown:
		if a.historyIdx > -1 {
			a.historyIdx--
			if a.historyIdx == -1 {
				a.query.SetValue(a.historyDraft)
			} else {
				a.query.SetValue(a.queryHistory[a.historyIdx])
			}
			a.query.CursorEnd()
		}
		return a, nil
	}

	var cmd tea.Cmd
	a.query, cmd = a.query.Update(msg)
	return a, cmd
}

func (a *App) handleSettingsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		a.closeModal()
		return a, nil
	case "ctrl+s", "enter":
		if msg.String() == "enter" && a.settings.focused() < len(a.settings.fields)-1 {
			return a, a.settings.move(1)
		}
		cfg, err := applySettings(a.wb.Config(), a.settings.values())
		if err != nil {
			a.settingsErr = err
			return a, nil
		}
		a.closeModal()
		return a, a.start("connecting", a.reconfigureCmd(cfg))
	}
	return a, a.settings.update(msg)
}

func (a *App) handleRowFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	rf := a.rowForm
	switch msg.String() {
	case "esc":
		a.closeModal()
		return a, nil
	case "ctrl+s", "enter":
		rf.err = nil
		return a, a.start("saving", a.submitRowCmd(rf.form, rf.inputs.values()))
	case "ctrl+k":
		if err := rf.setKeyToFocused(); err != nil {
			rf.err = err
		} else {
			rf.err = nil
		}
		a.updatePreview()
		return a, nil
	}
	cmd := rf.inputs.update(msg)
	a.updatePreview()
	return a, cmd
}

func (a *App) updatePreview() {
	rf := a.rowForm
	if rf == nil {
		return
	}
	var previewFn = a.wb.PreviewInsert
	if rf.form.Kind == workbench.FormUpdate {
		previewFn = a.wb.PreviewUpdate
	}
	stmt, err := previewFn(rf.form, rf.inputs.values())
	if err != nil {
		a.rowPreview = ""
		return
	}
	a.rowPreview = stmt.Preview
}

func (a *App) handleDeleteKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y", "enter":
		pending := a.deleting
		a.closeModal()
		return a, a.start("deleting", a.deleteCmd(pending))
	case "n", "N", "esc", "q":
		a.closeModal()
		a.setNote("delete cancelled", false)
	case "k", "ctrl+k":
		a.cycleDeleteKey()
	}
	return a, nil
}

// cycleDeleteKey moves the pending delete's match column to the next column.
func (a *App) cycleDeleteKey() {
	p := a.deleting
	cols := p.Columns()
	if len(cols) < 2 {
		return
	}
	next := 0
	for i, c := range cols {
		if c == p.KeyColumn {
			next = (i + 1) % len(cols)
			break
		}
	}
	if err := p.SetKeyColumn(cols[next]); err != nil {
		a.setNote(err.Error(), true)
	}
}

func (a *App) handleAIKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	p := a.aiPanel
	if p.reviewing() {
		switch msg.String() {
		case "y", "Y", "enter":
			if p.err != nil {
				return a, nil
			}
			a.closeModal()
			return a, a.start("running generated SQL", a.runGeneratedCmd())
		case "e":
			p.edit()
			return a, textinput.Blink
		case "esc", "n", "N":
			a.bridge.Discard()
			a.closeModal()
			a.setNote("generated SQL discarded", false)
		}
		return a, nil
	}

	switch msg.Type {
	case tea.KeyEsc:
		a.closeModal()
		return a, nil
	case tea.KeyEnter:
		p.err = nil
		return a, a.start("asking AI", a.generateCmd(p.input.Value()))
	}
	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	return a, cmd
}

func (a *App) handleChartKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	cv := a.chartView
	if key.Matches(msg, cv.keys.Close) {
		a.closeModal()
		return a, nil
	}
	if !cv.handle(msg) {
		if err := cv.composer.LastError(); err != nil {
			a.setNote("chart: "+err.Error(), true)
		}
		return a, nil
	}

	fig := cv.composer.Figure()
	switch {
	case a.export == "":
		cv.note = "export is not available in this session"
		return a, nil
	case fig == nil:
		cv.note = "nothing to export yet"
		return a, nil
	}
	name := fmt.Sprintf("chart-%s.html", time.Now().Format("20060102-150405"))
	return a, a.start("writing chart", a.exportChartCmd(fig, filepath.Join(a.export, name)))
}
