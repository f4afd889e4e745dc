// Package logger provides Simulatron's slog.Handler: a mutex-guarded,
// line-oriented text formatter that writes every record to a log file
// and mirrors it to stderr, either because the operator asked for debug
// output or because the record is above debug severity (a warning or
// error should always reach the terminal, not just the log file).
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// Handler is the slog.Handler installed by cmd/simulatron for the
// lifetime of one machine run.
type Handler struct {
	out   io.Writer
	inner slog.Handler
	mu    *sync.Mutex
	debug bool
}

func (h *Handler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &Handler{out: h.out, inner: h.inner.WithAttrs(attrs), mu: h.mu, debug: h.debug}
}

func (h *Handler) WithGroup(name string) slog.Handler {
	return &Handler{out: h.out, inner: h.inner.WithGroup(name), mu: h.mu, debug: h.debug}
}

// Handle formats one record as "time level: message attr attr..." and
// writes it to the log file, mirroring to stderr when debug is enabled
// or the record is above LevelDebug.
func (h *Handler) Handle(ctx context.Context, r slog.Record) error {
	fields := []string{r.Time.Format("2006/01/02 15:04:05"), r.Level.String() + ":", r.Message}
	r.Attrs(func(a slog.Attr) bool {
		fields = append(fields, a.String())
		return true
	})
	line := []byte(strings.Join(fields, " ") + "\n")

	h.mu.Lock()
	defer h.mu.Unlock()

	var err error
	if h.out != nil {
		_, err = h.out.Write(line)
	}
	if h.debug || r.Level > slog.LevelDebug {
		_, stderrErr := os.Stderr.Write(line)
		if err == nil {
			err = stderrErr
		}
	}
	return err
}

// SetDebug toggles whether LevelDebug records are mirrored to stderr.
// cmd/simulatron does not call it; it passes its -d/--debug flag to New.
func (h *Handler) SetDebug(debug bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.debug = debug
}

// New builds a Handler writing to file at the given minimum level. A
// nil file is valid (the handler then only mirrors to stderr: every
// record above LevelDebug, and debug records when debug is enabled).
func New(file io.Writer, level slog.Level, debug bool) *Handler {
	return &Handler{
		out:   file,
		inner: slog.NewTextHandler(file, &slog.HandlerOptions{Level: level}),
		mu:    &sync.Mutex{},
		debug: debug,
	}
}
