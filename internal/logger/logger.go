package logger

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"

	"github.com/flitsinc/go-datachat/internal/idgen"
)

type Config struct {
	DataDir string
	DevMode bool
}

// Init replaces the default slog logger. Level and format come from
// LOG_LEVEL and LOG_FORMAT.
func Init(cfg Config) {
	opts := &slog.HandlerOptions{Level: parseLevel(os.Getenv("LOG_LEVEL"))}
	slog.SetDefault(slog.New(newHandler(openSink(cfg), os.Getenv("LOG_FORMAT"), opts)))
}

// openSink picks LOG_FILE, then <data dir>/server.log outside dev mode, then
// stdout. A file that cannot be opened falls back to stdout.
func openSink(cfg Config) io.Writer {
	path := os.Getenv("LOG_FILE")
	if path == "" && !cfg.DevMode && cfg.DataDir != "" {
		path = filepath.Join(cfg.DataDir, "server.log")
	}
	if path == "" {
		return os.Stdout
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		slog.Error("log dir unavailable, writing to stdout", "file", path, "error", err)
		return os.Stdout
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		slog.Error("log file unavailable, writing to stdout", "file", path, "error", err)
		return os.Stdout
	}
	return f
}

func newHandler(w io.Writer, format string, opts *slog.HandlerOptions) slog.Handler {
	if strings.EqualFold(format, "json") {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

func parseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo
	}
	return level
}

func NewRequestLogger() *slog.Logger {
	return slog.With("requestId", idgen.New())
}

// LogPanic records a recovered panic value with the current stack.
func LogPanic(log *slog.Logger, recovered any, msg string, args ...any) {
	if log == nil {
		log = slog.Default()
	}
	args = append(args, "panic", recovered, "stack", string(debug.Stack()))
	log.Error(msg, args...)
}
