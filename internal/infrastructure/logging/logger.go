package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/codeofaxel/Kiln-sub005/internal/infrastructure/config"
)

// serviceName is stamped on every log record so aggregated streams from
// multiple services stay attributable.
const serviceName = "kiln"

// Logger is Kiln's structured logger, a thin wrapper over slog so packages
// can depend on one concrete type. Safe for concurrent use.
type Logger struct {
	*slog.Logger
}

// New builds a logger from the coordinator's logging config: level filter,
// json or text format, stdout or stderr destination. Every record carries
// the service name and build version.
func New(cfg config.LoggingConfig, version string) *Logger {
	handler := newHandler(cfg).WithAttrs([]slog.Attr{
		slog.String("service", serviceName),
		slog.String("version", version),
	})

	return &Logger{Logger: slog.New(handler)}
}

func newHandler(cfg config.LoggingConfig) slog.Handler {
	var output io.Writer
	switch strings.ToLower(cfg.Output) {
	case "stderr":
		output = os.Stderr
	default:
		output = os.Stdout
	}

	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}

	if strings.ToLower(cfg.Format) == "text" {
		return slog.NewTextHandler(output, opts)
	}
	return slog.NewJSONHandler(output, opts)
}

// parseLevel maps a config level string to slog's levels. Unrecognised
// values, including empty, fall back to info rather than erroring so a
// typo in config never silences logging entirely.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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

// With returns a child logger carrying additional default attributes.
// Subsystems tag themselves this way:
//
//	lockLog := log.With("component", "statelock")
func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...)}
}

// Default returns a stdout JSON logger at info level, for the window during
// startup before config has been loaded.
func Default() *Logger {
	return New(config.LoggingConfig{
		Level:  "info",
		Format: "json",
		Output: "stdout",
	}, "dev")
}
