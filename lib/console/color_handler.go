package console

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

var (
	timestampStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	attrStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))

	levelStyles = map[slog.Level]lipgloss.Style{
		slog.LevelDebug: lipgloss.NewStyle().Foreground(lipgloss.Color("4")),
		slog.LevelInfo:  lipgloss.NewStyle(),
		slog.LevelWarn:  lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
		slog.LevelError: lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
	}
)

// ColorHandler is a slog.Handler for interactive terminals: one line per
// record with a short colored level tag and dimmed attributes.
type ColorHandler struct {
	mu     *sync.Mutex
	writer io.Writer
	opts   *slog.HandlerOptions
	attrs  []slog.Attr
}

func NewColorHandler(w io.Writer, opts *slog.HandlerOptions) *ColorHandler {
	if opts == nil {
		opts = &slog.HandlerOptions{}
	}
	return &ColorHandler{
		mu:     &sync.Mutex{},
		writer: w,
		opts:   opts,
	}
}

func (h *ColorHandler) Enabled(ctx context.Context, level slog.Level) bool {
	minLevel := slog.LevelInfo
	if h.opts.Level != nil {
		minLevel = h.opts.Level.Level()
	}
	return level >= minLevel
}

func (h *ColorHandler) Handle(ctx context.Context, r slog.Record) error {
	if !h.Enabled(ctx, r.Level) {
		return nil
	}

	attrs := make([]string, 0, len(h.attrs)+r.NumAttrs())
	for _, a := range h.attrs {
		attrs = append(attrs, fmt.Sprintf("%s=%v", a.Key, a.Value))
	}
	r.Attrs(func(a slog.Attr) bool {
		attrs = append(attrs, fmt.Sprintf("%s=%v", a.Key, a.Value))
		return true
	})

	var attrsText string
	if len(attrs) > 0 {
		attrsText = " " + attrStyle.Render(strings.Join(attrs, " "))
	}

	line := fmt.Sprintf("%s %s %s%s\n",
		timestampStyle.Render("["+r.Time.Format("15:04:05")+"]"),
		levelStyle(r.Level).Render(levelText(r.Level)),
		r.Message, attrsText)

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.writer, line)
	return err
}

func (h *ColorHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append(append([]slog.Attr(nil), h.attrs...), attrs...)
	return &clone
}

// WithGroup is not supported; grouped attributes are printed flat.
func (h *ColorHandler) WithGroup(name string) slog.Handler {
	return h
}

func levelStyle(level slog.Level) lipgloss.Style {
	if style, ok := levelStyles[level]; ok {
		return style
	}
	return lipgloss.NewStyle()
}

func levelText(level slog.Level) string {
	switch level {
	case slog.LevelDebug:
		return "DEBG"
	case slog.LevelInfo:
		return "INFO"
	case slog.LevelWarn:
		return "WARN"
	case slog.LevelError:
		return "ERRO"
	default:
		return level.String()
	}
}
