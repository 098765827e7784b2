package observability

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// LogSettings is the subset of service configuration the logger needs.
type LogSettings interface {
	LogLevelName() string
	LogFormatName() string
}

// LogOptions is a fixed LogSettings for commands that do not read the
// service environment.
type LogOptions struct {
	Level  string
	Format string
}

// LogLevelName returns o.Level.
func (o LogOptions) LogLevelName() string { return o.Level }

// LogFormatName returns o.Format.
func (o LogOptions) LogFormatName() string { return o.Format }

// NewLogger builds the service logger writing to stderr.
func NewLogger(cfg LogSettings) *slog.Logger {
	return newLogger(os.Stderr, cfg.LogLevelName(), cfg.LogFormatName())
}

func newLogger(w io.Writer, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}
	if strings.EqualFold(format, "text") {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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
