package progress

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// ErrUnknownFormat is returned when an unrecognized log format is requested.
var ErrUnknownFormat = errors.New("unknown log format")

// Log formats accepted by NewLogger.
const (
	FormatPretty = "pretty"
	FormatJSON   = "json"
	FormatText   = "text"
)

// Compile-time interface check.
var _ slog.Handler = (*PrettyHandler)(nil)

// PrettyHandler writes colored, human-oriented lines. Context attributes
// added through WithAttrs/WithGroup become a "key=val " prefix. Inline
// attributes are hidden at info and above, except "duration" which is
// appended in cyan; debug records show all inline attributes dimmed, so the
// parser's element and id attributes stay readable when tracing.
type PrettyHandler struct {
	out    io.Writer
	level  slog.Leveler
	mu     *sync.Mutex
	prefix string
}

// NewPrettyHandler returns a PrettyHandler that writes to out at the given level.
func NewPrettyHandler(out io.Writer, level slog.Leveler) *PrettyHandler {
	return &PrettyHandler{out: out, level: level, mu: &sync.Mutex{}}
}

var (
	_warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("3")) // yellow
	_errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1")) // red
	_debugStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8")) // dim
	_cyanStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("6")) // cyan
)

// Enabled reports whether the handler handles records at the given level.
func (h *PrettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle writes one line for the record.
func (h *PrettyHandler) Handle(_ context.Context, r slog.Record) error {
	var line string
	switch {
	case r.Level >= slog.LevelError:
		line = _errorStyle.Render(h.prefix + r.Message)
	case r.Level >= slog.LevelWarn:
		line = _warnStyle.Render(h.prefix + r.Message)
	case r.Level < slog.LevelInfo:
		line = _debugStyle.Render(h.prefix + r.Message + inlineAttrs(r))
	default:
		line = h.prefix + r.Message
	}

	r.Attrs(func(a slog.Attr) bool {
		if a.Key == "duration" && r.Level >= slog.LevelInfo {
			line += " " + _cyanStyle.Render(a.Value.String())
			return false
		}
		return true
	})

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.out, line+"\n")
	return err
}

func inlineAttrs(r slog.Record) string {
	var b strings.Builder
	r.Attrs(func(a slog.Attr) bool {
		_, _ = fmt.Fprintf(&b, " %s=%s", a.Key, a.Value)
		return true
	})
	return b.String()
}

// WithAttrs returns a new handler that prepends the given attributes to messages.
func (h *PrettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	var b strings.Builder
	_, _ = b.WriteString(h.prefix)
	for _, a := range attrs {
		_, _ = fmt.Fprintf(&b, "%s=%s ", a.Key, a.Value)
	}
	return &PrettyHandler{out: h.out, level: h.level, mu: h.mu, prefix: b.String()}
}

// WithGroup returns a new handler that prepends the group name to messages.
func (h *PrettyHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &PrettyHandler{out: h.out, level: h.level, mu: h.mu, prefix: h.prefix + name + "."}
}

// NewLogger creates a logger writing format records at level to out.
func NewLogger(out io.Writer, format string, level slog.Level) (*slog.Logger, error) {
	var handler slog.Handler
	switch format {
	case FormatJSON:
		handler = slog.NewJSONHandler(out, &slog.HandlerOptions{Level: level})
	case FormatText:
		handler = slog.NewTextHandler(out, &slog.HandlerOptions{Level: level})
	case FormatPretty:
		handler = NewPrettyHandler(out, level)
	default:
		return nil, fmt.Errorf("unknown format %q: %w", format, ErrUnknownFormat)
	}
	return slog.New(handler), nil
}
