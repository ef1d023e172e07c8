// Package report turns the simulation's connectivity/message event stream
// into time-bucketed or single-cutoff statistics, written as two-column
// whitespace-separated lines to an append-only sink.
package report

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"sync"

	"github.com/dtnlabs/campusim/model"
)

// EventListener is the contract every report consumer shares: the scheduler
// delivers each simulation event exactly once, in non-decreasing timestamp
// order. Connectivity aggregators accept message events without counting
// them; message-level reports would do the opposite.
type EventListener interface {
	Process(ev model.Event) error
}

// LineSink is the append-only text stream reports write to.
type LineSink interface {
	WriteLine(line string) error
}

// MetricsRecorder receives report activity for the observability layer.
// A nil recorder is valid and drops everything.
type MetricsRecorder interface {
	EventProcessed(kind string)
	LineEmitted(report string)
}

// BufferSink collects lines in memory. Used by tests and by callers that
// post-process report output.
type BufferSink struct {
	mu    sync.Mutex
	lines []string
}

func (b *BufferSink) WriteLine(line string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lines = append(b.lines, line)
	return nil
}

// Lines returns a copy of everything written so far.
func (b *BufferSink) Lines() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, len(b.lines))
	copy(out, b.lines)
	return out
}

// FileSink appends lines to a buffered file. Close flushes and closes the
// underlying file.
type FileSink struct {
	f *os.File
	w *bufio.Writer
}

// NewFileSink creates (or truncates) the report file at path.
func NewFileSink(path string) (*FileSink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("report sink: create %q: %w", path, err)
	}
	return &FileSink{f: f, w: bufio.NewWriter(f)}, nil
}

func (s *FileSink) WriteLine(line string) error {
	if _, err := s.w.WriteString(line + "\n"); err != nil {
		return fmt.Errorf("report sink: write: %w", err)
	}
	return nil
}

// Close flushes buffered lines and closes the file.
func (s *FileSink) Close() error {
	if err := s.w.Flush(); err != nil {
		s.f.Close()
		return fmt.Errorf("report sink: flush: %w", err)
	}
	return s.f.Close()
}

// formatTime renders a simulated timestamp without a trailing fractional
// part when it is whole, so replayed streams produce byte-identical lines.
func formatTime(t float64) string {
	return strconv.FormatFloat(t, 'f', -1, 64)
}
