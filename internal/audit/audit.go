// Package audit provides the append-only request/error log.
//
// Every error response and every raw inbound request produces one line. The
// writer opens the file in append mode, writes the line and closes the file
// again, so lines written by a crashed process are never lost to buffering.
package audit

import (
	"fmt"
	"os"
	"strings"
)

// Writer appends single lines to a log file.
//
// Each Write is a separate open/append/close cycle. O_APPEND makes
// concurrent single-line writes safe without an explicit lock.
type Writer struct {
	path string
}

// NewWriter returns a Writer appending to the file at path. The file is
// created on first write.
func NewWriter(path string) *Writer {
	return &Writer{path: path}
}

// Write appends one line to the audit log. A trailing newline is added if
// the message does not end with one.
func (w *Writer) Write(msg string) error {
	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open audit log: %w", err)
	}
	defer f.Close()

	if !strings.HasSuffix(msg, "\n") {
		msg += "\n"
	}
	if _, err := f.WriteString(msg); err != nil {
		return fmt.Errorf("write audit log: %w", err)
	}
	return nil
}

// Path returns the audit log file path.
func (w *Writer) Path() string {
	return w.path
}
