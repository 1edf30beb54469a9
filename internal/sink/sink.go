// Package sink writes the result stream: one tab-separated header row,
// then one row per successful sample, to every registered writer. Every
// write is flushed immediately so a killed run leaves a consistent
// partial file with no buffered rows lost.
package sink

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

type flushWriter struct {
	buf *bufio.Writer
}

// Sink fans rows out to all writers in registration order.
type Sink struct {
	writers []flushWriter
	columns int
}

func New(ws ...io.Writer) *Sink {
	s := &Sink{}
	for _, w := range ws {
		s.writers = append(s.writers, flushWriter{buf: bufio.NewWriter(w)})
	}
	return s
}

func (s *Sink) writeLine(line string) error {
	for _, w := range s.writers {
		if _, err := w.buf.WriteString(line); err != nil {
			return fmt.Errorf("sink: %w", err)
		}
		if err := w.buf.Flush(); err != nil {
			return fmt.Errorf("sink: %w", err)
		}
	}
	return nil
}

// WriteHeader emits the column names and pins the schema: every
// subsequent row must have exactly this many fields.
func (s *Sink) WriteHeader(columns []string) error {
	s.columns = len(columns)
	return s.writeLine(strings.Join(columns, "\t") + "\n")
}

// WriteRow emits one data row.
func (s *Sink) WriteRow(fields []string) error {
	if len(fields) != s.columns {
		return fmt.Errorf("sink: row has %d fields, header has %d",
			len(fields), s.columns)
	}
	return s.writeLine(strings.Join(fields, "\t") + "\n")
}
