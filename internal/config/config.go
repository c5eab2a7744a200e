// Package config handles configuration defaults, file parsing, environment
// overrides and hot-reloading.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration. It is a plain value:
// the settings form and the file watcher replace it wholesale.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	AI       AIConfig       `yaml:"ai"`
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	History  HistoryConfig  `yaml:"history"`

	// Internal: path to the config file, empty when running on defaults.
	path string
}

// DatabaseConfig describes the single database connection.
type DatabaseConfig struct {
	// Driver is one of mysql, postgres or sqlite.
	Driver   string `yaml:"driver" env:"SQLHELPER_DB_DRIVER"`
	Host     string `yaml:"host" env:"SQLHELPER_DB_HOST"`
	Port     int    `yaml:"port" env:"SQLHELPER_DB_PORT"`
	User     string `yaml:"user" env:"SQLHELPER_DB_USER"`
	Password string `yaml:"password" env:"SQLHELPER_DB_PASSWORD"`

	// Name is the initial database (postgres needs one to connect to).
	Name string `yaml:"name" env:"SQLHELPER_DB_NAME"`

	// Path is a sqlite file, a directory of sqlite files, or a glob.
	Path string `yaml:"path" env:"SQLHELPER_DB_PATH"`

	ConnectTimeout string `yaml:"connect_timeout" env:"SQLHELPER_DB_CONNECT_TIMEOUT"`
}

// AIConfig describes the chat-completion endpoint used for SQL generation.
type AIConfig struct {
	URL         string  `yaml:"url" env:"SQLHELPER_AI_URL"`
	APIKey      string  `yaml:"api_key" env:"SQLHELPER_AI_API_KEY"`
	Model       string  `yaml:"model" env:"SQLHELPER_AI_MODEL"`
	Temperature float64 `yaml:"temperature" env:"SQLHELPER_AI_TEMPERATURE"`
	Timeout     string  `yaml:"timeout" env:"SQLHELPER_AI_TIMEOUT"`
}

// ServerConfig contains server-related configuration.
type ServerConfig struct {
	SSH SSHConfig `yaml:"ssh"`
}

// SSHConfig contains SSH server configuration.
type SSHConfig struct {
	Listen      string `yaml:"listen" env:"SQLHELPER_SSH_LISTEN"`
	HostKeyPath string `yaml:"host_key_path"`
	IdleTimeout string `yaml:"idle_timeout"`
	MaxTimeout  string `yaml:"max_timeout"`

	// Allow keyless SSH connections
	AllowKeyless bool   `yaml:"allow_keyless" env:"SQLHELPER_SSH_ALLOW_KEYLESS"`
	Users        []User `yaml:"users"`
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Level string `yaml:"level" env:"SQLHELPER_LOG_LEVEL"`
	File  string `yaml:"file" env:"SQLHELPER_LOG_FILE"`
}

// HistoryConfig controls the query history store.
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled" env:"SQLHELPER_HISTORY_ENABLED"`
	Path    string `yaml:"path" env:"SQLHELPER_HISTORY_PATH"`
}

// DefaultConfig returns the hardcoded defaults every process starts from.
func DefaultConfig() Config {
	dataDir := DataDir()
	return Config{
		Database: DatabaseConfig{
			Driver:         "mysql",
			Host:           "localhost",
			Port:           3307,
			User:           "root",
			Password:       "root",
			ConnectTimeout: "10s",
		},
		AI: AIConfig{
			URL:         "https://api.siliconflow.ai/v1/chat/completions",
			Model:       "silicon-flow-model",
			Temperature: 0.3,
			Timeout:     "30s",
		},
		Server: ServerConfig{
			SSH: SSHConfig{
				Listen:      ":2222",
				HostKeyPath: filepath.Join(dataDir, "host_key"),
				IdleTimeout: "30m",
				MaxTimeout:  "24h",
			},
		},
		Log: LogConfig{
			Level: "info",
			File:  filepath.Join(dataDir, "sqlhelper.log"),
		},
		History: HistoryConfig{
			Enabled: true,
			Path:    filepath.Join(dataDir, "history.db"),
		},
	}
}

// Load builds the configuration: defaults, then the YAML file at path (if
// any), then .env, then SQLHELPER_* environment variables.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to resolve config path: %w", err)
		}
		if err := readFile(absPath, &cfg); err != nil {
			return cfg, err
		}
		cfg.path = absPath
	}

	// A missing .env is the common case.
	_ = godotenv.Load()

	if err := ApplyEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// ApplyEnv overlays SQLHELPER_* environment variables onto cfg.
func ApplyEnv(cfg *Config) error {
	targets := []any{&cfg.Database, &cfg.AI, &cfg.Server.SSH, &cfg.Log, &cfg.History}
	for _, target := range targets {
		if err := cleanenv.ReadEnv(target); err != nil {
			return fmt.Errorf("failed to read environment: %w", err)
		}
	}
	return nil
}

func readFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

// Path returns the path to the config file.
func (c Config) Path() string {
	return c.path
}

// Reload re-reads the config file on top of fresh defaults.
func (c Config) Reload() (Config, error) {
	if c.path == "" {
		return c, nil
	}
	return Load(c.path)
}

// Validate reports the first problem with the connection settings.
func (c Config) Validate() error {
	switch c.Database.Driver {
	case "mysql", "postgres":
		if c.Database.Host == "" {
			return fmt.Errorf("database host is required")
		}
		if c.Database.Port <= 0 || c.Database.Port > 65535 {
			return fmt.Errorf("database port %d is out of range", c.Database.Port)
		}
	case "sqlite":
		if c.Database.Path == "" {
			return fmt.Errorf("sqlite path is required")
		}
	default:
		return fmt.Errorf("unsupported driver %q", c.Database.Driver)
	}
	return nil
}

// Timeout parses the database connect timeout.
func (d DatabaseConfig) Timeout() time.Duration {
	return parseDuration(d.ConnectTimeout, 10*time.Second)
}

// RequestTimeout parses the AI request timeout.
func (a AIConfig) RequestTimeout() time.Duration {
	return parseDuration(a.Timeout, 30*time.Second)
}

// GetIdleTimeout parses and returns the idle timeout duration.
func (s SSHConfig) GetIdleTimeout() time.Duration {
	return parseDuration(s.IdleTimeout, 30*time.Minute)
}

// GetMaxTimeout parses and returns the max timeout duration.
func (s SSHConfig) GetMaxTimeout() time.Duration {
	return parseDuration(s.MaxTimeout, 24*time.Hour)
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}

// DataDir returns the data directory path (for history, logs, keys, etc.).
func DataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".sqlhelper"
	}
	return filepath.Join(home, ".sqlhelper")
}
