package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/ssh"
	"github.com/johan-st/sqlhelper/internal/ai"
	"github.com/johan-st/sqlhelper/internal/config"
	"github.com/johan-st/sqlhelper/internal/server"
	"github.com/johan-st/sqlhelper/internal/workbench"
	"go.uber.org/zap"
)

// Handler returns the TUI handler for SSH sessions. Every session gets its
// own workbench built from the current config, closed when the session ends.
func Handler(cfg func() config.Config, logger *zap.Logger) server.TUIHandler {
	return func(s ssh.Session, session *server.Session) (tea.Model, []tea.ProgramOption) {
		pty, _, ok := s.Pty()
		if !ok {
			// routing middleware only sends PTY sessions here
			return nil, nil
		}

		log := logger.With(zap.String("session", session.ID))
		wb := workbench.New(cfg(),
			workbench.WithRecorder(session.Recorder),
			workbench.WithLogger(log))
		session.OnClose(func() { _ = wb.Disconnect() })

		app := NewApp(wb, Options{
			Bridge:   ai.NewBridge(wb, session.Recorder, log),
			Recorder: session.Recorder,
			Logger:   log,
			User:     session.User.DisplayName(),
			Width:    pty.Window.Width,
			Height:   pty.Window.Height,
			Context:  s.Context(),
		})

		return app, []tea.ProgramOption{
			tea.WithAltScreen(),
			tea.WithMouseCellMotion(),
		}
	}
}
