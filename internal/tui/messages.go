package tui

import (
	"github.com/johan-st/sqlhelper/internal/ai"
	"github.com/johan-st/sqlhelper/internal/config"
	"github.com/johan-st/sqlhelper/internal/workbench"
)

// Messages for async operations. Each background command ends with exactly
// one of these, which also clears the busy state.

// connectedMsg is sent after Connect or Reconfigure.
type connectedMsg struct {
	err error
}

// displayMsg is sent when an operation produced a new main panel.
type displayMsg struct {
	op       string
	display  *workbench.Display
	err      error
	treeMay  bool // the statement may have changed the schema tree
	quietErr bool // swallow validation errors (refresh without a selection)
}

// formReadyMsg is sent when an insert or update form was prepared.
type formReadyMsg struct {
	form *workbench.Form
	err  error
}

// deletePreparedMsg is sent when a delete awaits confirmation.
type deletePreparedMsg struct {
	pending *workbench.PendingDelete
	err     error
}

// generatedMsg is sent when the AI endpoint answered.
type generatedMsg struct {
	exchange *ai.Exchange
	err      error
}

// queryHistoryMsg carries statements for query bar recall.
type queryHistoryMsg struct {
	queries []string
}

// chartExportedMsg is sent after writing a chart page.
type chartExportedMsg struct {
	path string
	err  error
}

// ConfigReloadedMsg asks the UI to reconnect with a reloaded config.
type ConfigReloadedMsg struct {
	Config config.Config
}
