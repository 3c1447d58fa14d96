package services

import "context"

type contextKey string

const (
	mangaKey     contextKey = "manga"
	operationKey contextKey = "operation"
	requestIDKey contextKey = "request_id"
)

// WithManga annotates context with the normalized name of the manga being processed.
func WithManga(ctx context.Context, name string) context.Context {
	if name == "" {
		return ctx
	}
	return context.WithValue(ctx, mangaKey, name)
}

// MangaFromContext returns the manga name if present.
func MangaFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(mangaKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithOperation annotates context with the planner operation (add, update, ...).
func WithOperation(ctx context.Context, op string) context.Context {
	if op == "" {
		return ctx
	}
	return context.WithValue(ctx, operationKey, op)
}

// OperationFromContext returns the operation name if present.
func OperationFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(operationKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithRequestID annotates context with a correlation identifier.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext extracts the correlation identifier if present.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(requestIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
