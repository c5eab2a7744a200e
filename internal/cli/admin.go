package cli

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/ssh"
	"github.com/dustin/go-humanize"
	"github.com/johan-st/sqlhelper/internal/config"
	"github.com/johan-st/sqlhelper/internal/server"
	"github.com/johan-st/sqlhelper/internal/tui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func (h *Handler) historyCmd() *cobra.Command {
	var (
		limit     int
		exchanges bool
		mine      bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show executed statements or AI exchanges",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if h.store == nil {
				return errors.New("history is disabled")
			}
			if exchanges {
				return h.printExchanges(cmd, limit)
			}

			var sessionID string
			if mine {
				sessionID = h.recorder.SessionID()
			}
			records, err := h.store.ListQueryHistory(sessionID, time.Time{}, limit)
			if err != nil {
				return fmt.Errorf("failed to read history: %w", err)
			}

			if h.format == "json" {
				return printJSON(cmd.OutOrStdout(), records)
			}
			rows := make([][]string, len(records))
			for i, r := range records {
				status := "ok"
				if r.Error != "" {
					status = "error"
				}
				rows[i] = []string{
					humanize.Time(r.CreatedAt),
					r.Target,
					r.Database,
					fmt.Sprintf("%dms", r.ExecutionTimeMs),
					status,
					truncate(r.Query, 60),
				}
			}
			headers := []string{"when", "target", "database", "duration", "status", "query"}
			if h.format == "csv" {
				return printCSV(cmd.OutOrStdout(), headers, rows)
			}
			printTable(cmd.OutOrStdout(), headers, rows)
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "Maximum entries")
	cmd.Flags().BoolVar(&exchanges, "exchanges", false, "Show AI exchanges instead of statements")
	cmd.Flags().BoolVar(&mine, "mine", false, "Only this session (over SSH)")
	return cmd
}

func (h *Handler) printExchanges(cmd *cobra.Command, limit int) error {
	records, err := h.store.ListExchanges(limit)
	if err != nil {
		return fmt.Errorf("failed to read AI history: %w", err)
	}
	if h.format == "json" {
		return printJSON(cmd.OutOrStdout(), records)
	}
	rows := make([][]string, len(records))
	for i, r := range records {
		result := truncate(r.SQL, 50)
		if r.Error != "" {
			result = "error: " + truncate(r.Error, 43)
		}
		rows[i] = []string{
			humanize.Time(r.CreatedAt),
			r.Database + "." + r.Table,
			truncate(r.Request, 40),
			result,
		}
	}
	headers := []string{"when", "table", "request", "sql"}
	if h.format == "csv" {
		return printCSV(cmd.OutOrStdout(), headers, rows)
	}
	printTable(cmd.OutOrStdout(), headers, rows)
	return nil
}

func (h *Handler) serveCmd() *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve workbench sessions over SSH",
		Long: `Serve the interactive workbench over SSH. Each session connects with the
server's database settings and gets its own connection. A session started
with a command runs it and exits:

  ssh -p 2222 host tables main`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := h.cfg
			if listen != "" {
				cfg.Server.SSH.Listen = listen
			}

			srv := server.New(cfg, h.store, h.logger)
			srv.SetTUIHandler(tui.Handler(srv.Config, h.logger))
			srv.SetCLIHandler(func(s ssh.Session, session *server.Session) {
				Handle(s, Session{
					Config:   srv.Config(),
					Store:    h.store,
					Recorder: session.Recorder,
					Logger:   h.logger.With(zap.String("session", session.ID)),
				}, h.version)
			})

			if cfg.Path() != "" {
				watcher, err := config.NewWatcher(cfg, h.logger)
				if err != nil {
					h.logger.Warn("config watching disabled", zap.Error(err))
				} else {
					watcher.OnReload(func(next config.Config) {
						next.Server.SSH.Listen = cfg.Server.SSH.Listen
						srv.SetConfig(next)
					})
					if err := watcher.Start(); err != nil {
						h.logger.Warn("config watching disabled", zap.Error(err))
					}
					defer watcher.Stop()
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Listening on %s\n", cfg.Server.SSH.Listen)
			return srv.Start()
		},
	}
	cmd.Flags().StringVarP(&listen, "listen", "l", "", "Listen address (default from config)")
	return cmd
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
