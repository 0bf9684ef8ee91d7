package sidecar

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// serverLogName is the fixed file name the sidecar's output is persisted to.
const serverLogName = "server.log"

// Stream identifies which output stream a log line came from.
type Stream string

const (
	// StreamStdout tags lines read from the sidecar's standard output.
	StreamStdout Stream = "STDOUT"

	// StreamStderr tags lines read from the sidecar's standard error.
	StreamStderr Stream = "STDERR"
)

// Sink is the append-only destination for the sidecar's output streams.
//
// The underlying file is opened once in append mode. Each StreamWriter
// issues exactly one Write call per line, and append mode positions every
// write at end-of-file atomically, so the two concurrent drains never
// interleave mid-line and need no lock between them.
type Sink struct {
	path string

	mu   sync.Mutex // protects file during Close
	file *os.File
}

// OpenSink ensures logDir exists and opens <logDir>/server.log for append,
// creating it if absent.
func OpenSink(logDir string) (*Sink, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	path := filepath.Join(logDir, serverLogName)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open server log: %w", err)
	}

	return &Sink{path: path, file: file}, nil
}

// Path returns the location of the server log file.
func (s *Sink) Path() string {
	return s.path
}

// StreamWriter returns an independent writer for one output stream.
// Each drain holds its own StreamWriter; the writers share the appending
// file descriptor but no mutable state.
func (s *Sink) StreamWriter(stream Stream) *StreamWriter {
	return &StreamWriter{stream: stream, sink: s}
}

// WriteLine appends one newline-terminated, stream-tagged line.
// The line is written with a single Write call.
func (s *Sink) WriteLine(stream Stream, text string) error {
	s.mu.Lock()
	file := s.file
	s.mu.Unlock()

	if file == nil {
		return fmt.Errorf("server log is closed")
	}
	_, err := fmt.Fprintf(file, "[%s] %s\n", stream, text)
	return err
}

// WriteStartup records the spawn event: the sidecar's PID and the entry
// point it was launched from.
func (s *Sink) WriteStartup(pid int, path string) error {
	s.mu.Lock()
	file := s.file
	s.mu.Unlock()

	if file == nil {
		return fmt.Errorf("server log is closed")
	}
	_, err := fmt.Fprintf(file, "[SPAWN] pid=%d path=%s\n", pid, path)
	return err
}

// Close closes the underlying log file. Writes after Close fail but are
// tolerated by the drains (best-effort logging).
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}

// StreamWriter writes lines for a single output stream through its Sink.
type StreamWriter struct {
	stream Stream
	sink   *Sink
}

// WriteLine appends one tagged line for this writer's stream.
func (w *StreamWriter) WriteLine(text string) error {
	return w.sink.WriteLine(w.stream, text)
}

// Stream returns the output stream this writer tags lines with.
func (w *StreamWriter) Stream() Stream {
	return w.stream
}
