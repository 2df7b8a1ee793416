// Package logging configures the process logger. The terminal belongs to the
// user interface, so logs go to a file.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/tamaureus/tamaureus/internal/config"
)

// Open returns a logger appending to the file at path. The caller closes the
// returned file on exit.
func Open(path string, cfg config.LogConfig) (*logrus.Logger, *os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return New(f, cfg), f, nil
}

// New returns a logger writing to w with the level and format from cfg.
// Unknown levels fall back to info.
func New(w io.Writer, cfg config.LogConfig) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(w)

	if cfg.Format == "json" {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{DisableColors: true, FullTimestamp: true})
	}

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	l.SetLevel(level)
	return l
}

// Discard returns a logger that drops everything.
func Discard() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
