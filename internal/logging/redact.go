package logging

import (
	"context"
	"log/slog"
	"strings"
)

const redactedMask = "[redacted]"

// sensitiveKeys are attribute keys masked regardless of value type, so
// a plain string slipping past Secret still never reaches the writer.
var sensitiveKeys = []string{"key", "password", "passphrase", "plaintext", "secret", "token"}

// redactingHandler is the sink-side redaction formatter. It rewrites
// sensitive attributes before delegating to the wrapped handler.
type redactingHandler struct {
	inner slog.Handler
}

func (h *redactingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *redactingHandler) Handle(ctx context.Context, rec slog.Record) error {
	out := slog.NewRecord(rec.Time, rec.Level, rec.Message, rec.PC)
	rec.Attrs(func(a slog.Attr) bool {
		out.AddAttrs(redactAttr(a))
		return true
	})
	return h.inner.Handle(ctx, out)
}

func (h *redactingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	redacted := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		redacted[i] = redactAttr(a)
	}
	return &redactingHandler{inner: h.inner.WithAttrs(redacted)}
}

func (h *redactingHandler) WithGroup(name string) slog.Handler {
	return &redactingHandler{inner: h.inner.WithGroup(name)}
}

func redactAttr(a slog.Attr) slog.Attr {
	if _, ok := a.Value.Any().(Secret); ok {
		return slog.String(a.Key, redactedMask)
	}
	if isSensitiveKey(a.Key) {
		return slog.String(a.Key, redactedMask)
	}
	return a
}

func isSensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	for _, s := range sensitiveKeys {
		if lower == s || strings.HasSuffix(lower, "_"+s) {
			return true
		}
	}
	return false
}
