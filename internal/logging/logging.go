// Package logging builds the process logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/snowzach/rotatefilehook"

	"github.com/vancomm/sweeper/internal/config"
)

// New returns a logger writing text in development and JSON otherwise.
// With cfg.File set, entries are also appended to a rotated file.
func New(cfg config.Log, development bool, out io.Writer) (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	log := logrus.New()
	log.SetOutput(out)
	log.SetLevel(level)
	log.SetFormatter(formatter(development))

	if cfg.File != "" {
		hook, err := rotatefilehook.NewRotateFileHook(rotatefilehook.RotateFileConfig{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Level:      level,
			Formatter:  &logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano},
		})
		if err != nil {
			return nil, fmt.Errorf("unable to open log file: %w", err)
		}
		log.AddHook(hook)
	}
	return log, nil
}

func formatter(development bool) logrus.Formatter {
	if development {
		return &logrus.TextFormatter{
			ForceColors:     true,
			FullTimestamp:   true,
			TimestampFormat: time.TimeOnly,
		}
	}
	return &logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano}
}

// Must is New for main packages: it falls back to stderr on bad input.
func Must(cfg config.Log, development bool) *logrus.Logger {
	log, err := New(cfg, development, os.Stderr)
	if err != nil {
		log = logrus.New()
		log.SetFormatter(formatter(development))
		log.WithError(err).Warn("falling back to default logger")
	}
	return log
}
