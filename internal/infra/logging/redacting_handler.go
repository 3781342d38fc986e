package logging

import (
	"context"
	"log/slog"
)

// RedactedValue replaces the value of sensitive attributes.
const RedactedValue = "[REDACTED]"

//nolint:gochecknoglobals
var defaultSensitiveKeys = []string{"password", "Password", "cardNumber", "CardNumber"}

// RedactingHandler wraps another slog.Handler and replaces the values of
// sensitive attributes, including attributes nested in groups and
// slog.LogValuer results.
type RedactingHandler struct {
	h    slog.Handler
	keys map[string]struct{}
}

var _ slog.Handler = (*RedactingHandler)(nil)

// NewRedactingHandler creates a RedactingHandler. Without explicit keys,
// password and card number attributes are redacted.
func NewRedactingHandler(h slog.Handler, keys ...string) *RedactingHandler {
	if len(keys) == 0 {
		keys = defaultSensitiveKeys
	}

	set := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		set[k] = struct{}{}
	}

	return &RedactingHandler{h: h, keys: set}
}

// Handle implements slog.Handler.
func (h *RedactingHandler) Handle(ctx context.Context, r slog.Record) error {
	out := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)

	r.Attrs(func(a slog.Attr) bool {
		out.AddAttrs(h.redact(a))

		return true
	})

	//nolint:wrapcheck
	return h.h.Handle(ctx, out)
}

func (h *RedactingHandler) redact(a slog.Attr) slog.Attr {
	if _, ok := h.keys[a.Key]; ok {
		return slog.String(a.Key, RedactedValue)
	}

	v := a.Value.Resolve()
	if v.Kind() != slog.KindGroup {
		return slog.Attr{Key: a.Key, Value: v}
	}

	group := v.Group()
	redacted := make([]any, 0, len(group))

	for _, ga := range group {
		redacted = append(redacted, h.redact(ga))
	}

	return slog.Group(a.Key, redacted...)
}

func (h *RedactingHandler) redactAll(attrs []slog.Attr) []slog.Attr {
	out := make([]slog.Attr, 0, len(attrs))
	for _, a := range attrs {
		out = append(out, h.redact(a))
	}

	return out
}

// WithAttrs implements slog.Handler.WithAttrs.
func (h *RedactingHandler) WithAttrs(attrs []slog.Attr) Handler {
	return &RedactingHandler{h: h.h.WithAttrs(h.redactAll(attrs)), keys: h.keys}
}

// WithGroup implements slog.Handler.WithGroup.
func (h *RedactingHandler) WithGroup(name string) Handler {
	return &RedactingHandler{h: h.h.WithGroup(name), keys: h.keys}
}

// Enabled implements slog.Handler.Enabled.
func (h *RedactingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.h.Enabled(ctx, level)
}
