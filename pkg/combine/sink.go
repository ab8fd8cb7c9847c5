package combine

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"gitlab.com/tozd/go/errors"
)

// Sink receives the content stream and the user-facing error channel.
type Sink interface {
	// Write appends a block of content to the output stream.
	Write(content string) error
	// Warn reports a condition that skips a path without failing the run.
	Warn(message string)
	// Error reports a failure tied to a path.
	Error(message string)
}

// WriterSink writes content and diagnostics to separate writers.
type WriterSink struct {
	out    io.Writer
	errOut io.Writer
	warn   *color.Color
	fail   *color.Color
	closer io.Closer
}

// NewWriterSink creates a sink writing content to out and diagnostics to errOut.
// Diagnostics are colored only when colorize is set.
func NewWriterSink(out, errOut io.Writer, colorize bool) *WriterSink {
	s := &WriterSink{
		out:    out,
		errOut: errOut,
		warn:   color.New(color.FgYellow),
		fail:   color.New(color.FgRed),
	}
	if colorize {
		s.warn.EnableColor()
		s.fail.EnableColor()
	} else {
		s.warn.DisableColor()
		s.fail.DisableColor()
	}
	return s
}

// NewConsoleSink writes content to out and diagnostics to errOut, coloring
// diagnostics when errOut is a terminal.
func NewConsoleSink(out, errOut io.Writer) *WriterSink {
	return NewWriterSink(out, errOut, isTerminal(errOut))
}

// NewFileSink truncates the file at path and appends content to it. Diagnostics go to errOut.
func NewFileSink(path string, errOut io.Writer) (*WriterSink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, errors.Errorf("creating output file %s: %w", path, err)
	}
	s := NewConsoleSink(f, errOut)
	s.closer = f
	return s, nil
}

func (s *WriterSink) Write(content string) error {
	if _, err := io.WriteString(s.out, content); err != nil {
		return errors.WithStack(err)
	}
	return nil
}

func (s *WriterSink) Warn(message string) {
	s.warn.Fprintln(s.errOut, message)
}

func (s *WriterSink) Error(message string) {
	s.fail.Fprintln(s.errOut, message)
}

// Close releases the output file of a file sink.
func (s *WriterSink) Close() error {
	if s.closer == nil {
		return nil
	}
	if err := s.closer.Close(); err != nil {
		return errors.WithStack(err)
	}
	return nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// formatRecord renders one emitted file: its path, a delimiter line, the content
// and a closing delimiter line.
func formatRecord(path, content string) string {
	return fmt.Sprintf("%s\n---\n%s\n---\n", path, content)
}
