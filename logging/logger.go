// Package logging builds the harness logger and the --logfile sink.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/ethereum/go-ethereum/log"
)

const (
	FormatTerminal = "terminal"
	FormatLogfmt   = "logfmt"
	FormatJSON     = "json"
)

// Config selects the level and encoding of harness logs
type Config struct {
	Level  string
	Format string
	Color  bool // Only used by the terminal format
}

// DefaultConfig keeps the harness quiet unless something goes wrong.
func DefaultConfig() Config {
	return Config{Level: "warn", Format: FormatTerminal}
}

// ParseLevel converts a level name into a slog level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return log.LevelTrace, nil
	case "debug":
		return log.LevelDebug, nil
	case "info":
		return log.LevelInfo, nil
	case "", "warn", "warning":
		return log.LevelWarn, nil
	case "error":
		return log.LevelError, nil
	case "crit", "critical":
		return log.LevelCrit, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", s)
	}
}

// NewLogger creates a logger writing to w.
func NewLogger(w io.Writer, cfg Config) (log.Logger, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	var handler slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "", FormatTerminal:
		handler = log.NewTerminalHandlerWithLevel(w, level, cfg.Color)
	case FormatLogfmt:
		handler = log.LogfmtHandlerWithLevel(w, level)
	case FormatJSON:
		handler = log.JSONHandlerWithLevel(w, level)
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}
	return log.NewLogger(handler), nil
}
