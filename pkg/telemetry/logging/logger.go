package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// LogFormat represents the output format for logs.
type LogFormat string

const (
	FormatJSON    LogFormat = "json"
	FormatText    LogFormat = "text"
	FormatConsole LogFormat = "console"
)

// Config contains configuration for the Logger.
type Config struct {
	// Level is the minimum log level ("debug", "info", "warn", "error")
	Level string

	// Format is the output format ("json", "text", "console")
	Format string

	// AddSource includes file and line number in logs
	AddSource bool

	// RedactPII enables redaction of contact details and credentials
	RedactPII bool

	// RedactPatterns contains additional redaction patterns
	RedactPatterns []RedactPattern

	// Writer is the output writer (defaults to os.Stderr)
	Writer io.Writer
}

// Logger is a slog.Logger whose handler adds the request, scenario and
// trace fields carried by the context and, when enabled, redacts sensitive
// attribute values.
type Logger struct {
	*slog.Logger
	level slog.Level
}

// New creates a Logger from cfg.
func New(cfg Config) (*Logger, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}
	format, err := parseFormat(cfg.Format)
	if err != nil {
		return nil, fmt.Errorf("invalid log format: %w", err)
	}

	w := cfg.Writer
	if w == nil {
		w = os.Stderr
	}

	var redactor *Redactor
	if cfg.RedactPII {
		if redactor, err = NewRedactor(cfg.RedactPatterns); err != nil {
			return nil, err
		}
	}

	opts := &slog.HandlerOptions{Level: level, AddSource: cfg.AddSource}
	var inner slog.Handler
	if format == FormatJSON {
		inner = slog.NewJSONHandler(w, opts)
	} else {
		inner = slog.NewTextHandler(w, opts)
	}

	return &Logger{
		Logger: slog.New(&contextHandler{inner: inner, redactor: redactor}),
		level:  level,
	}, nil
}

// Slog returns the logger as a *slog.Logger for components that take one.
// Context fields and redaction still apply.
func (l *Logger) Slog() *slog.Logger {
	return l.Logger
}

// Level returns the configured minimum level.
func (l *Logger) Level() slog.Level {
	return l.level
}

// With returns a Logger with args added to every record.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...), level: l.level}
}

// WithComponent is shorthand for With("component", name).
func (l *Logger) WithComponent(name string) *Logger {
	return l.With("component", name)
}

// contextHandler adds context fields to records and redacts attributes
// before passing them to inner.
type contextHandler struct {
	inner    slog.Handler
	redactor *Redactor
}

func (h *contextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *contextHandler) Handle(ctx context.Context, rec slog.Record) error {
	present := make(map[string]bool, rec.NumAttrs())
	attrs := make([]slog.Attr, 0, rec.NumAttrs()+len(contextFields))
	rec.Attrs(func(a slog.Attr) bool {
		present[a.Key] = true
		attrs = append(attrs, h.redact(a))
		return true
	})
	for _, key := range contextFields {
		if v := getString(ctx, key); v != "" && !present[string(key)] {
			attrs = append(attrs, slog.String(string(key), v))
		}
	}

	out := slog.NewRecord(rec.Time, rec.Level, rec.Message, rec.PC)
	out.AddAttrs(attrs...)
	return h.inner.Handle(ctx, out)
}

func (h *contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	redacted := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		redacted[i] = h.redact(a)
	}
	return &contextHandler{inner: h.inner.WithAttrs(redacted), redactor: h.redactor}
}

func (h *contextHandler) WithGroup(name string) slog.Handler {
	return &contextHandler{inner: h.inner.WithGroup(name), redactor: h.redactor}
}

func (h *contextHandler) redact(a slog.Attr) slog.Attr {
	if h.redactor == nil {
		return a
	}
	if isSensitiveKey(a.Key) {
		return slog.String(a.Key, "***")
	}
	switch a.Value.Kind() {
	case slog.KindString:
		return slog.String(a.Key, h.redactor.RedactString(a.Value.String()))
	case slog.KindGroup:
		group := a.Value.Group()
		out := make([]any, len(group))
		for i, g := range group {
			out[i] = h.redact(g)
		}
		return slog.Group(a.Key, out...)
	default:
		return a
	}
}

// ParseLevel parses a log level string. An empty string means info.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level: %s", s)
	}
}

func parseFormat(s string) (LogFormat, error) {
	switch LogFormat(strings.ToLower(s)) {
	case FormatJSON, "":
		return FormatJSON, nil
	case FormatText:
		return FormatText, nil
	case FormatConsole:
		return FormatConsole, nil
	default:
		return FormatJSON, fmt.Errorf("unknown log format: %s", s)
	}
}
