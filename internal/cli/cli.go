// Package cli implements the command-line interface, both locally and for
// commands sent over SSH. Without a subcommand the interactive UI starts.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/ssh"
	"github.com/johan-st/sqlhelper/internal/config"
	"github.com/johan-st/sqlhelper/internal/history"
	"github.com/johan-st/sqlhelper/internal/logging"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Handler carries what every command needs. Locally it is filled in by the
// root command's pre-run; over SSH it is built from the server's state.
type Handler struct {
	version string
	remote  bool

	cfg      config.Config
	logger   *zap.Logger
	store    *history.Store
	recorder *history.Recorder

	// Flags.
	cfgFile string
	format  string
	verbose bool
	conn    connFlags
}

// NewRootCmd builds the local command tree.
func NewRootCmd(version string) *cobra.Command {
	h := &Handler{version: version, logger: zap.NewNop()}
	return h.rootCmd()
}

// Execute runs the local command tree and prints any error to stderr.
func Execute(version string) error {
	root := NewRootCmd(version)
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

func (h *Handler) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "sqlhelper",
		Short: "sqlhelper - a terminal workbench for MySQL, PostgreSQL and SQLite",
		Long: `sqlhelper browses databases, shows table data or structure, edits rows,
runs SQL, charts result sets and asks an AI endpoint to write SQL for you.

Run without a command for the interactive UI.`,
		Version:           h.version,
		Args:              cobra.NoArgs,
		PersistentPreRunE: h.setup,
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return h.teardown()
		},
		RunE:          h.runTUI,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetVersionTemplate("{{.Name}} {{.Version}}\n")

	pf := root.PersistentFlags()
	pf.StringVarP(&h.format, "format", "f", "table", "Output format (table|json|csv)")
	_ = root.RegisterFlagCompletionFunc("format", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return []string{"table", "json", "csv"}, cobra.ShellCompDirectiveNoFileComp
	})
	if !h.remote {
		pf.StringVarP(&h.cfgFile, "config", "c", "", "Config file (YAML)")
		pf.BoolVarP(&h.verbose, "verbose", "v", false, "Log debug output to stderr")
		h.conn.register(pf)
	}

	root.AddCommand(
		h.databasesCmd(),
		h.tablesCmd(),
		h.describeCmd(),
		h.showCmd(),
		h.queryCmd(),
		h.insertCmd(),
		h.updateCmd(),
		h.deleteCmd(),
		h.askCmd(),
		h.chartCmd(),
		h.historyCmd(),
		h.versionCmd(),
	)
	if !h.remote {
		root.AddCommand(h.serveCmd())
	}
	return root
}

// setup loads config, builds the logger and opens the history store.
func (h *Handler) setup(cmd *cobra.Command, _ []string) error {
	if h.remote {
		return nil
	}
	switch cmd.Name() {
	case "help", "completion", "__complete", "version":
		return nil
	}

	cfg, err := config.Load(h.cfgFile)
	if err != nil {
		return err
	}
	h.conn.apply(cmd.Root().PersistentFlags(), &cfg)
	h.cfg = cfg

	// The interactive UI owns the terminal, so it logs to a file.
	if cmd == cmd.Root() || cmd.Name() == "serve" {
		h.logger, err = logging.NewFile(cfg.Log)
		if err != nil {
			return err
		}
	} else {
		h.logger = logging.NewConsole(h.verbose)
	}

	if cfg.History.Enabled {
		store, err := history.NewStore(cfg.History.Path)
		if err != nil {
			h.logger.Warn("history disabled", zap.Error(err))
			return nil
		}
		h.store = store
		if cmd.Name() != "serve" && cmd.Name() != "history" {
			h.recorder, err = store.Start(history.NewSession(os.Getenv("USER"), "local"))
			if err != nil {
				h.logger.Warn("failed to start history session", zap.Error(err))
			}
		}
	}
	return nil
}

func (h *Handler) teardown() error {
	if h.remote {
		return nil
	}
	if err := h.recorder.End(); err != nil {
		h.logger.Warn("failed to end history session", zap.Error(err))
	}
	if h.store != nil {
		h.store.Close()
	}
	_ = h.logger.Sync()
	return nil
}

// Session is what an SSH command runs with.
type Session struct {
	Config   config.Config
	Store    *history.Store
	Recorder *history.Recorder
	Logger   *zap.Logger
}

// Handle runs one command sent over SSH against the server's config. The
// connection flags are not offered remotely.
func Handle(s ssh.Session, sess Session, version string) {
	code := Run(s.Context(), sess, version, s.Command(), s, s.Stderr())
	_ = s.Exit(code)
}

// Run executes args against a prepared session and returns the exit code.
func Run(ctx context.Context, sess Session, version string, args []string, out, errOut io.Writer) int {
	logger := sess.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Handler{
		version:  version,
		remote:   true,
		cfg:      sess.Config,
		logger:   logger,
		store:    sess.Store,
		recorder: sess.Recorder,
	}
	root := h.rootCmd()
	root.RunE = func(cmd *cobra.Command, _ []string) error { return cmd.Help() }
	if args == nil {
		args = []string{}
	}
	root.SetArgs(args)
	root.SetOut(out)
	root.SetErr(errOut)

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(errOut, "Error: %v\n", err)
		return 1
	}
	return 0
}
