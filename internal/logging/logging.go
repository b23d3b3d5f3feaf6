// Package logging builds the loggers injected into every component.
// Redaction is a property of the sink, not of call sites: values wrapped
// with Secret are masked by the handler before they reach the writer.
package logging

import (
	"io"
	"log/slog"
)

// LevelTrace sits below slog.LevelDebug and carries per-decision gate
// records.
const LevelTrace = slog.Level(-8)

// New returns a text logger writing to w at the given level, with the
// redacting sink installed.
func New(w io.Writer, level slog.Level) *slog.Logger {
	inner := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.LevelKey {
				if lvl, ok := a.Value.Any().(slog.Level); ok && lvl == LevelTrace {
					a.Value = slog.StringValue("TRACE")
				}
			}
			return a
		},
	})
	return slog.New(&redactingHandler{inner: inner})
}

// Discard returns a logger that drops everything. Components accept it
// in place of nil.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// Secret wraps a sensitive value so the redacting sink masks it. Key
// material and decrypted values must only ever be logged through
// Secret.
type Secret string

// LogValue implements slog.LogValuer. The mask is also the fallback if
// a non-redacting handler resolves the value.
func (Secret) LogValue() slog.Value {
	return slog.StringValue(redactedMask)
}
