// Package journal keeps a JSONL audit trail of processed log events.
// One journal file per run; each line records what happened to one
// distribution event (written, skipped, or failed).
package journal

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/smokerep/smokerep/types"
)

// Kind classifies a journal entry
type Kind string

const (
	KindWritten Kind = "written"
	KindSkipped Kind = "skipped"
	KindFailed  Kind = "failed"
)

// Entry is one line of the journal
type Entry struct {
	Timestamp time.Time   `json:"timestamp"`
	Sequence  int64       `json:"sequence"`
	Kind      Kind        `json:"kind"`
	DistLabel string      `json:"dist_label,omitempty"`
	Locator   string      `json:"locator,omitempty"`
	Grade     types.Grade `json:"grade,omitempty"`
	Path      string      `json:"path,omitempty"`
	Error     string      `json:"error,omitempty"`
}

// Journal appends entries to a run-scoped file. Entries are flushed and
// synced per write so a crashed run still leaves a usable trail.
type Journal struct {
	file     *os.File
	writer   *bufio.Writer
	sequence int64
	dir      string
}

// Open creates a new journal file in dir, named by run start time.
func Open(dir string) (*Journal, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create journal directory: %w", err)
	}

	name := fmt.Sprintf("smokerep-%s.journal", time.Now().Format("20060102-150405"))
	path := filepath.Join(dir, name)

	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal file: %w", err)
	}

	return &Journal{
		file:   file,
		writer: bufio.NewWriter(file),
		dir:    dir,
	}, nil
}

// Close flushes and closes the journal
func (j *Journal) Close() error {
	if err := j.writer.Flush(); err != nil {
		return err
	}
	return j.file.Close()
}

// Written records a report successfully persisted at path.
func (j *Journal) Written(ev types.Event, path string) error {
	return j.append(Entry{
		Kind:      KindWritten,
		DistLabel: ev.DistLabel,
		Locator:   ev.Locator,
		Grade:     ev.Grade,
		Path:      path,
	})
}

// Skipped records a per-event skip with its reason.
func (j *Journal) Skipped(ev types.Event, reason error) error {
	return j.append(Entry{
		Kind:      KindSkipped,
		DistLabel: ev.DistLabel,
		Locator:   ev.Locator,
		Grade:     ev.Grade,
		Error:     reason.Error(),
	})
}

// Failed records a fatal store failure for the event that hit it.
func (j *Journal) Failed(ev types.Event, cause error) error {
	return j.append(Entry{
		Kind:      KindFailed,
		DistLabel: ev.DistLabel,
		Locator:   ev.Locator,
		Grade:     ev.Grade,
		Error:     cause.Error(),
	})
}

func (j *Journal) append(e Entry) error {
	j.sequence++
	e.Timestamp = time.Now()
	e.Sequence = j.sequence

	line, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal entry: %w", err)
	}
	if _, err := j.writer.Write(line); err != nil {
		return fmt.Errorf("failed to write entry: %w", err)
	}
	if _, err := j.writer.WriteString("\n"); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}
	if err := j.writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush: %w", err)
	}
	return j.file.Sync()
}

// Reader replays a journal file entry by entry
type Reader struct {
	scanner *bufio.Scanner
	file    *os.File
}

// NewReader opens the journal file at path for replay.
func NewReader(path string) (*Reader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal file: %w", err)
	}
	return &Reader{scanner: bufio.NewScanner(file), file: file}, nil
}

// Next returns the next entry, or io.EOF at the end of the file.
func (r *Reader) Next() (*Entry, error) {
	if !r.scanner.Scan() {
		if err := r.scanner.Err(); err != nil {
			return nil, err
		}
		return nil, io.EOF
	}

	var e Entry
	if err := json.Unmarshal(r.scanner.Bytes(), &e); err != nil {
		return nil, fmt.Errorf("failed to unmarshal entry: %w", err)
	}
	return &e, nil
}

// Close closes the reader
func (r *Reader) Close() error {
	return r.file.Close()
}

// Replay walks every journal file in dir and hands entries newer than
// since to handler, oldest file first.
func Replay(dir string, since time.Time, handler func(*Entry) error) error {
	files, err := filepath.Glob(filepath.Join(dir, "smokerep-*.journal"))
	if err != nil {
		return fmt.Errorf("failed to list journal files: %w", err)
	}

	for _, file := range files {
		reader, err := NewReader(file)
		if err != nil {
			return err
		}

		for {
			entry, err := reader.Next()
			if err == io.EOF {
				break
			}
			if err != nil {
				reader.Close()
				return err
			}
			if entry.Timestamp.After(since) {
				if err := handler(entry); err != nil {
					reader.Close()
					return err
				}
			}
		}
		if err := reader.Close(); err != nil {
			return err
		}
	}
	return nil
}
