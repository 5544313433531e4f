// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package logger configures the charmbracelet logger used across docfill.
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/mattn/go-isatty"

	"github.com/pdiddy/docfill/pkg/types"
)

// New builds a logger writing to w. Format "json" or "text" is honored as
// given; "auto" (or empty) picks text for terminals and JSON otherwise.
func New(cfg types.LogConfig, w io.Writer) *log.Logger {
	l := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05",
		Level:           parseLevel(cfg.Level),
	})
	if useJSON(cfg.Format, w) {
		l.SetFormatter(log.JSONFormatter)
	} else {
		l.SetFormatter(log.TextFormatter)
	}
	return l
}

// Discard returns a logger that drops everything. Tests and library
// callers that pass no logger use it.
func Discard() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{})
}

// OrDiscard returns l, or a discarding logger when l is nil.
func OrDiscard(l *log.Logger) *log.Logger {
	if l == nil {
		return Discard()
	}
	return l
}

func parseLevel(s string) log.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return log.DebugLevel
	case "warn":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}

func useJSON(format string, w io.Writer) bool {
	switch strings.ToLower(format) {
	case "json":
		return true
	case "text":
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return !isatty.IsTerminal(f.Fd()) && !isatty.IsCygwinTerminal(f.Fd())
}
