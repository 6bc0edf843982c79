// Package slogctx carries a *slog.Logger through a context.Context.
package slogctx

import (
	"context"
	"log/slog"
)

type _loggerKey struct{}

// ContextWithLogger returns a copy of ctx that carries logger.
func ContextWithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, _loggerKey{}, logger)
}

// FromContext returns the logger carried by ctx, falling back to slog.Default().
func FromContext(ctx context.Context) *slog.Logger {
	if l, ok := Lookup(ctx); ok {
		return l
	}
	return slog.Default()
}

// Lookup returns the logger carried by ctx and whether there is one.
func Lookup(ctx context.Context) (*slog.Logger, bool) {
	l, ok := ctx.Value(_loggerKey{}).(*slog.Logger)
	return l, ok && l != nil
}

// With returns a copy of ctx whose logger has args attached, so every record
// logged through the returned context names, for example, the file it is about.
func With(ctx context.Context, args ...any) context.Context {
	if len(args) == 0 {
		return ctx
	}
	return ContextWithLogger(ctx, FromContext(ctx).With(args...))
}
