package logging

import (
	"log/slog"
	"time"

	"mgdl/internal/services"
)

type Attr = slog.Attr

func Any(key string, value any) Attr { return slog.Any(key, value) }

func Duration(key string, value time.Duration) Attr { return slog.Duration(key, value) }

func Int(key string, value int) Attr { return slog.Int(key, value) }

func Int64(key string, value int64) Attr { return slog.Int64(key, value) }

func Uint64(key string, value uint64) Attr { return slog.Uint64(key, value) }

func String(key string, value string) Attr { return slog.String(key, value) }

func Error(err error) Attr {
	if err == nil {
		return slog.String("error", "<nil>")
	}
	return slog.Any("error", err)
}

// Event tags a line with an event_type for filtering.
func Event(eventType string) Attr { return slog.String(FieldEventType, eventType) }

func toArgs(attrs []Attr) []any {
	args := make([]any, 0, len(attrs))
	for _, attr := range attrs {
		args = append(args, attr)
	}
	return args
}

// NewNop returns a logger that drops everything.
func NewNop() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// NewComponentLogger creates a logger with a standardized component attribute.
// If logger is nil, a no-op logger is used as the base.
func NewComponentLogger(logger *slog.Logger, component string) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	return logger.With(String(FieldComponent, component))
}

// WarnFailure logs err at warn level with event_type set and error_hint
// derived from the error's classification.
func WarnFailure(logger *slog.Logger, msg, eventType string, err error, attrs ...Attr) {
	if logger == nil {
		return
	}
	hint := services.Kind(err)
	if hint == "" {
		hint = "unclassified"
	}
	attrs = append(attrs, Error(err), Event(eventType), String(FieldErrorHint, hint))
	logger.Warn(msg, toArgs(attrs)...)
}
