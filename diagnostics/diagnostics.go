// Package diagnostics provides the structured-logging interface every
// docrag component is constructed with. The sink itself is an external
// collaborator (in the desktop app it forwards to a UI log pane); this
// package only owns the interface and a slog-backed default, matching
// the way the teacher's embedding providers log.
package diagnostics

import (
	"log/slog"
	"os"
	"time"
)

// Sink is the injected logging collaborator. Every component takes one
// as a constructor argument rather than reaching for a package-level
// logger.
type Sink interface {
	Debug(msg string, kv ...any)
	Info(msg string, kv ...any)
	Warn(msg string, kv ...any)
	Error(msg string, kv ...any)

	// Timed starts an operation timer and returns a function that logs
	// its duration when called. The caller passes a pointer to its
	// named error return so the log line reflects the final outcome:
	//
	//	defer sink.Timed("process_document")(&err)
	Timed(op string) func(err *error)
}

type slogSink struct {
	logger *slog.Logger
}

// NewSlogSink wraps an existing *slog.Logger as a Sink.
func NewSlogSink(logger *slog.Logger) Sink {
	return &slogSink{logger: logger}
}

// NewDefaultSlogSink builds the JSON-to-stdout logger the teacher's
// embedding providers construct inline.
func NewDefaultSlogSink() Sink {
	return NewSlogSink(slog.New(slog.NewJSONHandler(os.Stdout, nil)))
}

func (s *slogSink) Debug(msg string, kv ...any) { s.logger.Debug(msg, kv...) }
func (s *slogSink) Info(msg string, kv ...any)  { s.logger.Info(msg, kv...) }
func (s *slogSink) Warn(msg string, kv ...any)  { s.logger.Warn(msg, kv...) }
func (s *slogSink) Error(msg string, kv ...any) { s.logger.Error(msg, kv...) }

func (s *slogSink) Timed(op string) func(err *error) {
	start := time.Now()
	return func(err *error) {
		elapsed := time.Since(start)
		if err != nil && *err != nil {
			s.logger.Error("operation failed", "op", op, "duration", elapsed, "error", (*err).Error())
			return
		}
		s.logger.Debug("operation completed", "op", op, "duration", elapsed)
	}
}

// noopSink discards everything. Used by tests that don't want log
// noise but still need to satisfy the Sink-taking constructors.
type noopSink struct{}

// Noop returns a Sink that discards all output.
func Noop() Sink { return noopSink{} }

func (noopSink) Debug(string, ...any) {}
func (noopSink) Info(string, ...any)  {}
func (noopSink) Warn(string, ...any)  {}
func (noopSink) Error(string, ...any) {}
func (noopSink) Timed(string) func(err *error) {
	return func(*error) {}
}
