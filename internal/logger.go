package internal

import (
	"io"
	"log/slog"
	"strings"
	"time"
)

// NewLogger returns the process logger. Production writes JSON with RFC 3339
// timestamps, other environments write text. Every record carries the
// service name and the environment so logs from several deployments can be
// told apart once shipped.
func NewLogger(w io.Writer, env string, level string) *slog.Logger {
	lvl, ok := parseLevel(level)
	if !ok {
		slog.Default().Warn("Invalid log level. Using default level: info", slog.String("value", level))
	}

	opts := &slog.HandlerOptions{
		Level:     lvl,
		AddSource: lvl <= slog.LevelDebug,
	}

	var h slog.Handler
	if env == "prod" {
		opts.ReplaceAttr = rfc3339Time
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}

	return slog.New(h).With(
		slog.String("service", "cardapio"),
		slog.String("env", env),
	)
}

// parseLevel accepts the slog level names in any case. Unknown names fall
// back to info.
func parseLevel(s string) (slog.Level, bool) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, false
	}
	return l, true
}

func rfc3339Time(_ []string, a slog.Attr) slog.Attr {
	if a.Key == slog.TimeKey && a.Value.Kind() == slog.KindTime {
		return slog.String(slog.TimeKey, a.Value.Time().Format(time.RFC3339Nano))
	}
	return a
}
