// Copyright (c) 2026 Tablewire
// Licensed under the MIT License. See LICENSE file in the project root for details.

package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pterm/pterm"
)

var levels = map[string]pterm.LogLevel{
	"trace": pterm.LogLevelTrace,
	"debug": pterm.LogLevelDebug,
	"info":  pterm.LogLevelInfo,
	"warn":  pterm.LogLevelWarn,
	"error": pterm.LogLevelError,
}

// ParseLevel maps a config level name onto a pterm log level.
func ParseLevel(s string) (pterm.LogLevel, error) {
	if lvl, ok := levels[strings.ToLower(strings.TrimSpace(s))]; ok {
		return lvl, nil
	}
	return pterm.LogLevelInfo, fmt.Errorf("unknown log level %q (use trace, debug, info, warn or error)", s)
}

// New builds the process logger. format is "text" or "json"; w defaults to stderr.
func New(level, format string, w io.Writer) (*pterm.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	if w == nil {
		w = os.Stderr
	}

	logger := pterm.DefaultLogger.
		WithLevel(lvl).
		WithWriter(w).
		WithTime(true)

	switch strings.ToLower(format) {
	case "", "text":
		logger = logger.WithFormatter(pterm.LogFormatterColorful)
	case "json":
		logger = logger.WithFormatter(pterm.LogFormatterJSON)
	default:
		return nil, fmt.Errorf("unknown log format %q (use text or json)", format)
	}
	return logger, nil
}

// Discard returns a logger that drops everything. Used by tests and as a nil fallback.
func Discard() *pterm.Logger {
	return pterm.DefaultLogger.WithLevel(pterm.LogLevelDisabled).WithWriter(io.Discard)
}
