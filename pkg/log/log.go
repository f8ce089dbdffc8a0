// Package log configures structured logging for all relay services. Binaries
// call Setup once at start; packages derive module-scoped loggers with
// WithModule.
package log

import (
	"log/slog"
	"os"
	"strings"
)

// Setup installs the process-wide slog text handler on stderr. Level names
// are case-insensitive; unknown or empty names fall back to info.
func Setup(logLevel string) {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: ParseLevel(logLevel),
	})))
}

// ParseLevel maps a level name to its slog level; "warning" is accepted as
// an alias for warn.
func ParseLevel(logLevel string) slog.Level {
	switch strings.ToLower(logLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func WithModule(module string) *slog.Logger {
	return slog.With("module", module)
}
