// Package logfile manages the timestamped capture log: directory creation,
// file naming, the header block and line appends.
package logfile

import (
	"bufio"
	"os"
	"path/filepath"
	"time"

	ferrors "git.home.luguber.info/inful/runlog/internal/foundation/errors"
)

const (
	// TimestampLayout renders YYYYMMDD_HHMMSS.
	TimestampLayout = "20060102_150405"
	// DefaultPrefix is the file name prefix used when none is configured.
	DefaultPrefix = "google_signin"
	// Extension is appended to every log file name.
	Extension = ".log"
)

// EnsureDir creates dir and any missing parents.
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return ferrors.FileSystemError("create log directory").
			WithCause(err).
			WithContext("path", dir).
			Build()
	}
	return nil
}

// Name returns "<prefix>_<YYYYMMDD_HHMMSS>.log" for t in local time.
func Name(prefix string, t time.Time) string {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return prefix + "_" + t.Local().Format(TimestampLayout) + Extension
}

// Path joins dir with Name(prefix, t).
func Path(dir, prefix string, t time.Time) string {
	return filepath.Join(dir, Name(prefix, t))
}

// Header is written at the top of every log file.
type Header struct {
	Command string
	Project string
}

// Option configures a Writer.
type Option func(*Writer)

// WithLineFlush controls whether every line is flushed to the file as soon as it is written.
func WithLineFlush(enabled bool) Option {
	return func(w *Writer) { w.flushLines = enabled }
}

// Writer appends captured lines to an open log file.
type Writer struct {
	path       string
	file       *os.File
	buf        *bufio.Writer
	flushLines bool
	lines      int
	closed     bool
}

// Create opens path for writing (truncating an existing file), writes the header
// and flushes it before returning.
func Create(path string, h Header, opts ...Option) (*Writer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, ferrors.FileSystemError("open log file").
			WithCause(err).
			WithContext("path", path).
			Build()
	}
	w := &Writer{
		path:       path,
		file:       f,
		buf:        bufio.NewWriter(f),
		flushLines: true,
	}
	for _, opt := range opts {
		opt(w)
	}

	_, _ = w.buf.WriteString("CMD: " + h.Command + "\n")
	_, _ = w.buf.WriteString("PROJECT: " + h.Project + "\n")
	_, _ = w.buf.WriteString("\n")
	if err := w.buf.Flush(); err != nil {
		_ = f.Close()
		return nil, w.writeError("write log header", err)
	}
	return w, nil
}

// WriteLine appends line exactly as given; the caller keeps the line terminator.
func (w *Writer) WriteLine(line string) error {
	if _, err := w.buf.WriteString(line); err != nil {
		return w.writeError("append log line", err)
	}
	w.lines++
	if w.flushLines {
		return w.Flush()
	}
	return nil
}

// Flush pushes buffered lines to the file.
func (w *Writer) Flush() error {
	if err := w.buf.Flush(); err != nil {
		return w.writeError("flush log file", err)
	}
	return nil
}

// Lines reports how many lines were appended after the header.
func (w *Writer) Lines() int { return w.lines }

// Path returns the file location.
func (w *Writer) Path() string { return w.path }

// Close flushes and closes the file. Calling Close more than once is a no-op.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	flushErr := w.buf.Flush()
	closeErr := w.file.Close()
	if flushErr != nil {
		return w.writeError("flush log file", flushErr)
	}
	if closeErr != nil {
		return w.writeError("close log file", closeErr)
	}
	return nil
}

func (w *Writer) writeError(msg string, err error) error {
	return ferrors.FileSystemError(msg).
		WithCause(err).
		WithContext("path", w.path).
		Build()
}
