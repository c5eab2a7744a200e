package tui

import (
	"strconv"
	"strings"

	"github.com/johan-st/sqlhelper/internal/apperr"
	"github.com/johan-st/sqlhelper/internal/config"
)

// Settings form field order.
const (
	setDriver = iota
	setHost
	setPort
	setUser
	setPassword
	setName
	setPath
	setAIURL
	setAIKey
	setAIModel
)

// newSettingsForm pre-fills the connection settings from cfg. Edits apply to
// this session only; nothing is written back to the config file.
func newSettingsForm(cfg config.Config) *inputForm {
	port := ""
	if cfg.Database.Port > 0 {
		port = strconv.Itoa(cfg.Database.Port)
	}
	f := &inputForm{}
	f.add("Driver", cfg.Database.Driver, "mysql, postgres or sqlite", false)
	f.add("Host", cfg.Database.Host, "", false)
	f.add("Port", port, "", false)
	f.add("User", cfg.Database.User, "", false)
	f.add("Password", cfg.Database.Password, "", true)
	f.add("Database", cfg.Database.Name, "initial database", false)
	f.add("SQLite path", cfg.Database.Path, "file, directory or glob", false)
	f.add("AI URL", cfg.AI.URL, "", false)
	f.add("AI key", cfg.AI.APIKey, "", true)
	f.add("AI model", cfg.AI.Model, "", false)
	return f
}

// applySettings replaces the edited fields of cfg wholesale.
func applySettings(cfg config.Config, values []string) (config.Config, error) {
	const op = "settings"

	v := func(i int) string { return strings.TrimSpace(values[i]) }

	port := 0
	if s := v(setPort); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return cfg, apperr.Validation(op, "port %q is not a number", s)
		}
		port = n
	}

	cfg.Database.Driver = strings.ToLower(v(setDriver))
	cfg.Database.Host = v(setHost)
	cfg.Database.Port = port
	cfg.Database.User = v(setUser)
	cfg.Database.Password = values[setPassword]
	cfg.Database.Name = v(setName)
	cfg.Database.Path = v(setPath)
	cfg.AI.URL = v(setAIURL)
	cfg.AI.APIKey = v(setAIKey)
	cfg.AI.Model = v(setAIModel)

	if err := cfg.Validate(); err != nil {
		return cfg, apperr.Wrap(apperr.KindConfiguration, op, err)
	}
	return cfg, nil
}
