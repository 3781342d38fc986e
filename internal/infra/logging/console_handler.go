package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strconv"
	"strings"
	"sync"
)

const (
	ansiCodeReset     = "\033[0m"
	ansiCodeRed       = "\033[31m"
	ansiCodeGreen     = "\033[32m"
	ansiCodeYellow    = "\033[33m"
	ansiCodeCyan      = "\033[36m"
	ansiCodeGray      = "\033[90m"
	ansiCodeUnderline = "\033[4m"
)

//nolint:gochecknoglobals
var ansiCodeMap = map[slog.Level]string{
	slog.LevelDebug: ansiCodeCyan,
	slog.LevelInfo:  ansiCodeGreen,
	slog.LevelWarn:  ansiCodeYellow,
	slog.LevelError: ansiCodeRed,
}

// loggerNameKey is the attribute GetLogger attaches the logger name under.
const loggerNameKey = "logger"

// ConsoleHandler implements slog.Handler to format log records with ansiCodes
// and human-readable output suitable for development environments.
type ConsoleHandler struct {
	// Output is the destination for log output (typically os.Stdout or os.Stderr)
	Output io.Writer
	// Level is the minimum level for log records to be processed
	Level slog.Leveler
	// PkgLevels maps logger names (and their dotted prefixes) to minimum log levels
	PkgLevels map[string]slog.Level

	attrs  []slog.Attr
	groups []string
	mu     *sync.Mutex
}

var _ slog.Handler = (*ConsoleHandler)(nil)

// Handle implements slog.Handler by formatting the log record with ansiCodes,
// timestamps, and source file information.
func (h *ConsoleHandler) Handle(_ context.Context, r slog.Record) error {
	attrs := make([]slog.Attr, 0, r.NumAttrs()+len(h.attrs))

	r.Attrs(func(a slog.Attr) bool {
		attrs = append(attrs, a)

		return true
	})

	attrs = append(attrs, h.attrs...)

	if !h.pkgEnabled(loggerName(attrs), r.Level) {
		return nil
	}

	var msg strings.Builder

	msg.WriteString(ansiCodeGray + r.Time.Format("15:04:05.000000") + ansiCodeReset)
	msg.WriteString(" " + ansiCodeMap[r.Level] + "[" + r.Level.String() + "]" + ansiCodeReset)
	msg.WriteString(" " + r.Message)

	var prefix string

	if len(h.groups) > 0 {
		prefix = strings.Join(h.groups, ".") + "."
	}

	if len(attrs) > 0 {
		msg.WriteString(" " + ansiCodeGray + "|" + ansiCodeReset)
		h.renderAttrs(&msg, prefix, attrs)
	}

	if r.PC != 0 {
		fs := runtime.CallersFrames([]uintptr{r.PC})
		f, _ := fs.Next()
		fn := strings.Split(f.Function, string(os.PathSeparator))

		msg.WriteString("\n-> " + ansiCodeGray + fn[len(fn)-1] + "()")
		msg.WriteString(" in " + ansiCodeUnderline + f.File + ":" + strconv.Itoa(f.Line) + ansiCodeReset)
	}

	if h.mu != nil {
		h.mu.Lock()
		defer h.mu.Unlock()
	}

	if _, err := fmt.Fprintln(h.Output, msg.String()); err != nil {
		return fmt.Errorf("write log: %w", err)
	}

	return nil
}

// pkgEnabled walks the dotted logger name from the most specific to the
// empty prefix and applies the first configured level override.
func (h *ConsoleHandler) pkgEnabled(name string, level slog.Level) bool {
	parts := strings.Split(name, ".")

	for i := len(parts); i >= 0; i-- {
		minLevel, ok := h.PkgLevels[strings.Join(parts[:i], ".")]
		if ok {
			return level >= minLevel
		}
	}

	return level >= h.Level.Level()
}

func loggerName(attrs []slog.Attr) string {
	for _, attr := range attrs {
		if attr.Key == loggerNameKey {
			return attr.Value.String()
		}
	}

	return ""
}

func (h *ConsoleHandler) renderAttrs(out *strings.Builder, prefix string, attrs []slog.Attr) {
	for _, attr := range attrs {
		value := attr.Value.Resolve()

		if value.Kind() == slog.KindGroup {
			h.renderAttrs(out, prefix+attr.Key+".", value.Group())

			continue
		}

		out.WriteString(" " + prefix + attr.Key)
		out.WriteString("=" + ansiCodeGray + value.String() + ansiCodeReset)
	}
}

// WithAttrs implements slog.Handler.WithAttrs.
func (h *ConsoleHandler) WithAttrs(attrs []slog.Attr) Handler {
	return &ConsoleHandler{
		Output:    h.Output,
		Level:     h.Level,
		PkgLevels: h.PkgLevels,
		attrs:     append(h.attrs[:len(h.attrs):len(h.attrs)], attrs...),
		groups:    h.groups,
		mu:        h.mu,
	}
}

// WithGroup implements slog.Handler.WithGroup.
func (h *ConsoleHandler) WithGroup(name string) Handler {
	return &ConsoleHandler{
		Output:    h.Output,
		Level:     h.Level,
		PkgLevels: h.PkgLevels,
		attrs:     h.attrs,
		groups:    append(h.groups[:len(h.groups):len(h.groups)], name),
		mu:        h.mu,
	}
}

// Enabled implements slog.Handler.Enabled. A record is let through when
// either the global level or any package override admits it; Handle applies
// the precise per-logger decision.
func (h *ConsoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	if h.Level.Level() <= level {
		return true
	}

	for _, minLevel := range h.PkgLevels {
		if minLevel <= level {
			return true
		}
	}

	return false
}
