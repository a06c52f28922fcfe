package main

import (
	"fmt"
	"io"
	"time"

	"github.com/zenibako/qlab-sync/config"

	"github.com/charmbracelet/log"
)

// setupLogging replaces the default logger used by every package
func setupLogging(cfg config.LogConfig, w io.Writer) error {
	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	var formatter log.Formatter
	switch cfg.Format {
	case "", "text":
		formatter = log.TextFormatter
	case "json":
		formatter = log.JSONFormatter
	case "logfmt":
		formatter = log.LogfmtFormatter
	default:
		return fmt.Errorf("invalid log format %q (expected text, json or logfmt)", cfg.Format)
	}

	log.SetDefault(log.NewWithOptions(w, log.Options{
		Level:           level,
		Formatter:       formatter,
		ReportTimestamp: true,
		TimeFormat:      time.TimeOnly,
	}))
	return nil
}
