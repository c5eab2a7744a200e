package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sqlhelper.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Database.Host != "localhost" || cfg.Database.Port != 3307 {
		t.Errorf("unexpected default address %s:%d", cfg.Database.Host, cfg.Database.Port)
	}
	if cfg.Database.User != "root" || cfg.Database.Password != "root" {
		t.Errorf("unexpected default credentials")
	}
	if cfg.AI.APIKey != "" {
		t.Errorf("API key should default to empty")
	}
	if cfg.AI.RequestTimeout() != 30*time.Second {
		t.Errorf("RequestTimeout() = %v", cfg.AI.RequestTimeout())
	}
	if cfg.Path() != "" {
		t.Errorf("defaults should have no path")
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
database:
  driver: sqlite
  path: /tmp/app.db
ai:
  api_key: secret
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Database.Driver != "sqlite" || cfg.Database.Path != "/tmp/app.db" {
		t.Errorf("file values not applied: %+v", cfg.Database)
	}
	// Untouched keys keep their defaults.
	if cfg.Database.Port != 3307 {
		t.Errorf("Port = %d, want default 3307", cfg.Database.Port)
	}
	if cfg.AI.APIKey != "secret" || cfg.AI.Model != "silicon-flow-model" {
		t.Errorf("unexpected AI config %+v", cfg.AI)
	}
	if cfg.Path() == "" {
		t.Errorf("Path() should be set after Load")
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "database:\n  host: filehost\n")
	t.Setenv("SQLHELPER_DB_HOST", "envhost")
	t.Setenv("SQLHELPER_DB_PORT", "3306")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Database.Host != "envhost" {
		t.Errorf("Host = %q, want envhost", cfg.Database.Host)
	}
	if cfg.Database.Port != 3306 {
		t.Errorf("Port = %d, want 3306", cfg.Database.Port)
	}
}

func TestLoad_Errors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
	if _, err := Load(writeConfig(t, "database: [unclosed")); err == nil {
		t.Error("expected error for malformed yaml")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"no host", func(c *Config) { c.Database.Host = "" }, true},
		{"bad port", func(c *Config) { c.Database.Port = 70000 }, true},
		{"sqlite without path", func(c *Config) { c.Database.Driver = "sqlite" }, true},
		{"sqlite with path", func(c *Config) { c.Database.Driver = "sqlite"; c.Database.Path = "a.db" }, false},
		{"unknown driver", func(c *Config) { c.Database.Driver = "oracle" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestWatcher_Reload(t *testing.T) {
	path := writeConfig(t, "database:\n  host: one\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	w, err := NewWatcher(cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}
	defer w.Stop()

	got := make(chan Config, 1)
	w.OnReload(func(c Config) {
		select {
		case got <- c:
		default:
		}
	})
	if err := w.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	if err := os.WriteFile(path, []byte("database:\n  host: two\n"), 0o600); err != nil {
		t.Fatalf("rewrite failed: %v", err)
	}

	select {
	case c := <-got:
		if c.Database.Host != "two" {
			t.Errorf("reloaded host = %q, want two", c.Database.Host)
		}
		if w.Config().Database.Host != "two" {
			t.Errorf("watcher kept stale config")
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for reload")
	}
}
