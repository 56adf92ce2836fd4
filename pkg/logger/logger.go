// Package logger builds the process-wide slog logger and provides
// attribute helpers for the engagement domain.
// No external dependencies - uses only standard library.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// Format selects the handler encoding.
type Format string

const (
	// FormatJSON writes one JSON object per line.
	FormatJSON Format = "json"
	// FormatText writes logfmt-style key=value lines.
	FormatText Format = "text"
)

// ParseLevel parses a string into a slog.Level. Unknown values map to Info.
func ParseLevel(s string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ParseFormat parses a string into a Format. Unknown values map to JSON.
func ParseFormat(s string) Format {
	if strings.EqualFold(strings.TrimSpace(s), string(FormatText)) {
		return FormatText
	}
	return FormatJSON
}

// Options configures the logger.
type Options struct {
	Output    io.Writer
	Level     slog.Level
	Format    Format
	AddSource bool

	// Service is attached to every record when set.
	Service string
}

// DefaultOptions returns sensible defaults for the logger.
func DefaultOptions() Options {
	return Options{
		Output: os.Stdout,
		Level:  slog.LevelInfo,
		Format: FormatJSON,
	}
}

// New creates a new slog.Logger with the given options.
func New(opts Options) *slog.Logger {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	handlerOpts := &slog.HandlerOptions{
		Level:     opts.Level,
		AddSource: opts.AddSource,
	}

	var handler slog.Handler
	if opts.Format == FormatText {
		handler = slog.NewTextHandler(opts.Output, handlerOpts)
	} else {
		handler = slog.NewJSONHandler(opts.Output, handlerOpts)
	}

	l := slog.New(handler)
	if opts.Service != "" {
		l = l.With(slog.String("service", opts.Service))
	}
	return l
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

// OrDefault returns l, or slog.Default() when l is nil.
func OrDefault(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.Default()
	}
	return l
}

// Err creates an error attribute.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Any("error", nil)
	}
	return slog.String("error", err.Error())
}

// Engagement logging helpers.
func UserID(id string) slog.Attr           { return slog.String("user_id", id) }
func ItemID(id string) slog.Attr           { return slog.String("item_id", id) }
func Date(d string) slog.Attr              { return slog.String("date", d) }
func Points(n int) slog.Attr               { return slog.Int("points", n) }
func Streak(n int) slog.Attr               { return slog.Int("streak", n) }
func BadgeName(name string) slog.Attr      { return slog.String("badge", name) }
func Component(name string) slog.Attr      { return slog.String("component", name) }
func CorrelationID(id string) slog.Attr    { return slog.String("correlation_id", id) }
func Latency(d time.Duration) slog.Attr    { return slog.String("latency", d.String()) }
func Driver(name string) slog.Attr         { return slog.String("driver", name) }
func EventType(eventType string) slog.Attr { return slog.String("event_type", eventType) }
