// Package logging builds the application logger.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/muesli/termenv"
)

// New creates a configured application logger writing to stderr (to keep it
// apart from the stdout reports). With color enabled, level names are
// colorized through termenv; the profile degrades to plain text on dumb
// terminals and pipes by itself.
func New(level slog.Level, color bool) *slog.Logger {
	if color {
		return slog.New(newColorHandler(os.Stderr, level))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			// Standardize 'error' key to 'err'
			if a.Key == "error" {
				a.Key = "err"
			}
			return a
		},
	}))
}

// NewNop returns a no-op logger.
func NewNop() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// colorHandler renders "LEVEL    message key=value" lines with the level
// name colorized, mirroring the colorlog style of classic release tooling.
type colorHandler struct {
	mu     *sync.Mutex
	w      io.Writer
	out    *termenv.Output
	level  slog.Level
	attrs  []slog.Attr
	groups []string
}

func newColorHandler(w io.Writer, level slog.Level) *colorHandler {
	return &colorHandler{
		mu:    &sync.Mutex{},
		w:     w,
		out:   termenv.NewOutput(w),
		level: level,
	}
}

func (h *colorHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

var levelColors = map[slog.Level]string{
	slog.LevelDebug: "6", // cyan
	slog.LevelInfo:  "2", // green
	slog.LevelWarn:  "3", // yellow
	slog.LevelError: "1", // red
}

func (h *colorHandler) Handle(_ context.Context, rec slog.Record) error {
	label := rec.Level.String()
	styled := h.out.String(fmt.Sprintf("%-8s", label)).
		Foreground(h.out.Color(levelColors[rec.Level])).
		String()

	var b strings.Builder
	b.WriteString(styled)
	b.WriteString(" ")
	b.WriteString(rec.Message)

	writeAttr := func(a slog.Attr) bool {
		if a.Key == "error" {
			a.Key = "err"
		}
		fmt.Fprintf(&b, " %s=%v", strings.Join(append(h.groups, a.Key), "."), a.Value)
		return true
	}
	for _, a := range h.attrs {
		writeAttr(a)
	}
	rec.Attrs(writeAttr)
	b.WriteString("\n")

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, b.String())
	return err
}

func (h *colorHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &next
}

func (h *colorHandler) WithGroup(name string) slog.Handler {
	next := *h
	next.groups = append(append([]string{}, h.groups...), name)
	return &next
}
