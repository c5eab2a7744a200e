package cli

import (
	"context"

	"github.com/johan-st/sqlhelper/internal/config"
	"github.com/johan-st/sqlhelper/internal/workbench"
	"github.com/spf13/pflag"
)

// connFlags override the connection settings of the loaded config. Only
// flags that were set on the command line apply.
type connFlags struct {
	driver   string
	host     string
	port     int
	user     string
	password string
	name     string
	path     string
	aiURL    string
	aiKey    string
	aiModel  string
}

func (f *connFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.driver, "driver", "", "Database driver (mysql|postgres|sqlite)")
	fs.StringVar(&f.host, "host", "", "Database host")
	fs.IntVar(&f.port, "port", 0, "Database port")
	fs.StringVarP(&f.user, "user", "u", "", "Database user")
	fs.StringVarP(&f.password, "password", "p", "", "Database password")
	fs.StringVar(&f.name, "db-name", "", "Initial database to connect to")
	fs.StringVar(&f.path, "path", "", "SQLite file, directory or glob")
	fs.StringVar(&f.aiURL, "ai-url", "", "Chat completion endpoint URL")
	fs.StringVar(&f.aiKey, "ai-key", "", "AI API key")
	fs.StringVar(&f.aiModel, "ai-model", "", "AI model name")
}

func (f *connFlags) apply(fs *pflag.FlagSet, cfg *config.Config) {
	set := func(name string, apply func()) {
		if fs.Changed(name) {
			apply()
		}
	}
	set("driver", func() { cfg.Database.Driver = f.driver })
	set("host", func() { cfg.Database.Host = f.host })
	set("port", func() { cfg.Database.Port = f.port })
	set("user", func() { cfg.Database.User = f.user })
	set("password", func() { cfg.Database.Password = f.password })
	set("db-name", func() { cfg.Database.Name = f.name })
	set("path", func() {
		cfg.Database.Path = f.path
		if !fs.Changed("driver") {
			cfg.Database.Driver = "sqlite"
		}
	})
	set("ai-url", func() { cfg.AI.URL = f.aiURL })
	set("ai-key", func() { cfg.AI.APIKey = f.aiKey })
	set("ai-model", func() { cfg.AI.Model = f.aiModel })
}

// openWorkbench connects a workbench for one command. The caller must call
// Disconnect.
func (h *Handler) openWorkbench(ctx context.Context) (*workbench.Workbench, error) {
	if err := h.cfg.Validate(); err != nil {
		return nil, err
	}
	wb := workbench.New(h.cfg,
		workbench.WithRecorder(h.recorder),
		workbench.WithLogger(h.logger))
	if err := wb.Connect(ctx); err != nil {
		wb.Disconnect()
		return nil, err
	}
	return wb, nil
}

// openTable connects and selects database.table.
func (h *Handler) openTable(ctx context.Context, database, table string) (*workbench.Workbench, error) {
	wb, err := h.openWorkbench(ctx)
	if err != nil {
		return nil, err
	}
	if err := wb.SelectTable(database, table); err != nil {
		wb.Disconnect()
		return nil, err
	}
	return wb, nil
}
