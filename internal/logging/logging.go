// Package logging builds the zap loggers used across sqlhelper.
package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/johan-st/sqlhelper/internal/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewFile returns a JSON logger writing to cfg.File. The interactive UI owns
// the terminal, so it must not log to stdout or stderr.
func NewFile(cfg config.LogConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}
	if cfg.File == "" {
		return zap.NewNop(), nil
	}
	if err := os.MkdirAll(filepath.Dir(cfg.File), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.OutputPaths = []string{cfg.File}
	zc.ErrorOutputPaths = []string{cfg.File}
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return zc.Build()
}

// NewConsole returns a human-readable logger on stderr for the command-line
// surface. Only warnings and above are shown unless verbose is set.
func NewConsole(verbose bool) *zap.Logger {
	level := zapcore.WarnLevel
	if verbose {
		level = zapcore.DebugLevel
	}
	enc := zap.NewDevelopmentEncoderConfig()
	enc.EncodeLevel = zapcore.CapitalColorLevelEncoder
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.Lock(os.Stderr), level)
	return zap.New(core)
}
