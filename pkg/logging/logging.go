// Package logging carries the logger contract and the central error-reporting
// hook used by the install passes.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync"
)

// Logger is the structured logger consumed across the module. *slog.Logger
// satisfies it.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Default returns a text logger writing to stderr at info level.
func Default() Logger {
	return New(os.Stderr, slog.LevelInfo)
}

// New returns a text logger writing to w at the given level.
func New(w io.Writer, level slog.Level) Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// Nop discards everything.
func Nop() Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Reporter receives configuration and transport errors. Reporting never
// interrupts the caller: an install pass reports and moves on to the next
// declaration.
type Reporter interface {
	Report(ctx context.Context, err error)
}

// ReporterFunc adapts a function into a Reporter.
type ReporterFunc func(ctx context.Context, err error)

// Report delegates to the function.
func (fn ReporterFunc) Report(ctx context.Context, err error) {
	fn(ctx, err)
}

// LogReporter logs reported errors at error level.
type LogReporter struct {
	Logger Logger
}

// Report implements Reporter.
func (r LogReporter) Report(_ context.Context, err error) {
	if err == nil || r.Logger == nil {
		return
	}
	r.Logger.Error("axelforms error", "error", err)
}

// Recorder keeps reported errors in memory; tests and the CLI summary use it.
type Recorder struct {
	mu     sync.Mutex
	errors []error
	next   Reporter
}

// NewRecorder returns a Recorder that also forwards to next when non-nil.
func NewRecorder(next Reporter) *Recorder {
	return &Recorder{next: next}
}

// Report implements Reporter.
func (r *Recorder) Report(ctx context.Context, err error) {
	if err == nil {
		return
	}
	r.mu.Lock()
	r.errors = append(r.errors, err)
	r.mu.Unlock()
	if r.next != nil {
		r.next.Report(ctx, err)
	}
}

// Errors returns a copy of the recorded errors.
func (r *Recorder) Errors() []error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]error(nil), r.errors...)
}

// Reset forgets recorded errors.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors = nil
}
