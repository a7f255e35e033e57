package logger

import (
	"context"
	"fmt"
	"os"
	"sync"
)

type ctxKey struct{}

// WithContext stores l in ctx.
func WithContext(ctx context.Context, l Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext returns the request-scoped logger, or a shared warn-level
// stderr logger when none was attached.
func FromContext(ctx context.Context) Logger {
	if l, ok := ctx.Value(ctxKey{}).(Logger); ok {
		return l
	}
	return fallback()
}

var (
	fallbackLog  Logger
	fallbackOnce sync.Once
)

func fallback() Logger {
	fallbackOnce.Do(func() {
		l, err := New(Config{Level: "warn", OutputPaths: []string{"stderr"}})
		if err != nil {
			fmt.Fprintf(os.Stderr, "logger: fallback init failed: %v\n", err)
			l = NewNop()
		}
		fallbackLog = l
	})
	return fallbackLog
}

// Lookup returns the logger stored in ctx, if any.
func Lookup(ctx context.Context) (Logger, bool) {
	l, ok := ctx.Value(ctxKey{}).(Logger)
	return l, ok
}
