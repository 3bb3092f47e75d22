// Package logging carries a request- or job-scoped slog.Logger through a
// context so that services log with the attributes of whoever called them.
package logging

import (
	"context"
	"log/slog"
)

type contextKey struct{}

// ContextWithLogger returns a derived context that carries logger.
func ContextWithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	if ctx == nil || logger == nil {
		return ctx
	}
	return context.WithValue(ctx, contextKey{}, logger)
}

// FromContext extracts a logger previously attached to ctx, or nil.
func FromContext(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return nil
	}
	logger, _ := ctx.Value(contextKey{}).(*slog.Logger)
	return logger
}

// Resolve returns the context logger, else the first non-nil fallback, else
// slog.Default.
func Resolve(ctx context.Context, fallbacks ...*slog.Logger) *slog.Logger {
	if logger := FromContext(ctx); logger != nil {
		return logger
	}
	for _, logger := range fallbacks {
		if logger != nil {
			return logger
		}
	}
	return slog.Default()
}

// With attaches the resolved logger, extended with args, to ctx.
func With(ctx context.Context, fallback *slog.Logger, args ...any) context.Context {
	return ContextWithLogger(ctx, Resolve(ctx, fallback).With(args...))
}
