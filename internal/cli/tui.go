package cli

import (
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/johan-st/sqlhelper/internal/ai"
	"github.com/johan-st/sqlhelper/internal/config"
	"github.com/johan-st/sqlhelper/internal/tui"
	"github.com/johan-st/sqlhelper/internal/workbench"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"
)

// runTUI starts the interactive UI. The connection is opened by the UI
// itself, so a bad config still opens the settings form.
func (h *Handler) runTUI(cmd *cobra.Command, _ []string) error {
	wb := workbench.New(h.cfg,
		workbench.WithRecorder(h.recorder),
		workbench.WithLogger(h.logger))
	defer wb.Disconnect()

	width, height := 80, 24
	if w, hgt, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
		width, height = w, hgt
	}

	app := tui.NewApp(wb, tui.Options{
		Bridge:    ai.NewBridge(wb, h.recorder, h.logger),
		Recorder:  h.recorder,
		Logger:    h.logger,
		User:      os.Getenv("USER"),
		Width:     width,
		Height:    height,
		ExportDir: ".",
		Context:   cmd.Context(),
	})
	p := tea.NewProgram(app,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(cmd.Context()))

	if h.cfg.Path() != "" {
		watcher, err := config.NewWatcher(h.cfg, h.logger)
		if err != nil {
			h.logger.Warn("config watching disabled", zap.Error(err))
		} else {
			watcher.OnReload(func(c config.Config) {
				p.Send(tui.ConfigReloadedMsg{Config: c})
			})
			if err := watcher.Start(); err != nil {
				h.logger.Warn("config watching disabled", zap.Error(err))
			}
			defer watcher.Stop()
		}
	}

	_, err := p.Run()
	return err
}
