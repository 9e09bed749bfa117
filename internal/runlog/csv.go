// Package runlog provides logging sinks that receive one tabular row per
// run pause.
package runlog

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
)

// CSVSink writes the run log as CSV. It implements the generation engine's
// logging sink contract: one header row at open, one value row per pause.
type CSVSink struct {
	path string

	file *os.File
	w    *csv.Writer
}

// NewCSVSink builds a sink writing to the given path. The file is created
// (or truncated) at Open, not at construction.
func NewCSVSink(path string) *CSVSink {
	return &CSVSink{path: path}
}

func (s *CSVSink) Open() error {
	if s.file != nil {
		return nil
	}
	f, err := os.Create(s.path)
	if err != nil {
		return fmt.Errorf("open run log %q: %w", s.path, err)
	}
	s.file = f
	s.w = csv.NewWriter(f)
	return nil
}

func (s *CSVSink) LogHeader(controllerFields, statsFields, championFields []string) error {
	if s.w == nil {
		return fmt.Errorf("run log is not open")
	}
	header := make([]string, 0, len(controllerFields)+len(statsFields)+len(championFields))
	header = append(header, controllerFields...)
	header = append(header, statsFields...)
	header = append(header, championFields...)
	if err := s.w.Write(header); err != nil {
		return fmt.Errorf("write run log header: %w", err)
	}
	s.w.Flush()
	return s.w.Error()
}

func (s *CSVSink) LogValues(values []string) error {
	if s.w == nil {
		return fmt.Errorf("run log is not open")
	}
	if err := s.w.Write(values); err != nil {
		return fmt.Errorf("write run log row: %w", err)
	}
	// Rows arrive at pause boundaries only; flush so the file is readable
	// while the run is paused.
	s.w.Flush()
	return s.w.Error()
}

func (s *CSVSink) Close() error {
	if s.file == nil {
		return nil
	}
	s.w.Flush()
	err := s.w.Error()
	if cerr := s.file.Close(); err == nil {
		err = cerr
	}
	s.file = nil
	s.w = nil
	return err
}

// WriterSink adapts any io.Writer into a sink, for tests and in-memory use.
type WriterSink struct {
	w *csv.Writer
}

// NewWriterSink wraps an io.Writer.
func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{w: csv.NewWriter(w)}
}

func (s *WriterSink) Open() error { return nil }

func (s *WriterSink) LogHeader(controllerFields, statsFields, championFields []string) error {
	header := make([]string, 0, len(controllerFields)+len(statsFields)+len(championFields))
	header = append(header, controllerFields...)
	header = append(header, statsFields...)
	header = append(header, championFields...)
	if err := s.w.Write(header); err != nil {
		return err
	}
	s.w.Flush()
	return s.w.Error()
}

func (s *WriterSink) LogValues(values []string) error {
	if err := s.w.Write(values); err != nil {
		return err
	}
	s.w.Flush()
	return s.w.Error()
}

func (s *WriterSink) Close() error {
	s.w.Flush()
	return s.w.Error()
}
