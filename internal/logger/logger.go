package logger

import (
	"io"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
)

// ParseLevel: debug | info | warn | error; неизвестное — info
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// New собирает логгер: format auto — tint на терминале, иначе JSON
func New(w io.Writer, level, format string) *slog.Logger {
	lvl := ParseLevel(level)
	f, ok := w.(*os.File)
	terminal := ok && isatty.IsTerminal(f.Fd())
	if format == "auto" || format == "" {
		format = "json"
		if terminal {
			format = "tint"
		}
	}

	var h slog.Handler
	switch format {
	case "tint":
		h = tint.NewHandler(w, &tint.Options{
			NoColor:    runtime.GOOS == "windows" || !terminal,
			AddSource:  lvl <= slog.LevelDebug,
			Level:      lvl,
			TimeFormat: time.TimeOnly,
		})
	case "text":
		h = slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})
	default:
		h = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl})
	}
	return slog.New(h)
}

// Discard — логгер для тестов
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
