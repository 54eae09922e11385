// Package store persists outcome reports as JSON files.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/smokerep/smokerep/types"
)

// Store failures are fatal for the run: they indicate a caller setup bug
// or an unrecoverable I/O error, not a bad event.
var (
	ErrMissingDir = errors.New("report directory missing")
	ErrWrite      = errors.New("report write failed")
)

// Store writes one file per report into a fixed directory. The directory
// must exist before the first write; the store never creates it.
type Store struct {
	dir string
}

// New creates a store targeting dir.
func New(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the target directory.
func (s *Store) Dir() string { return s.dir }

// FileName computes the report file name for an (author, label) pair.
// The same pair always maps to the same name, so re-running over a log
// overwrites the previous report: last write wins.
func FileName(author, distLabel string) string {
	if author != "" {
		return author + "." + distLabel + ".log.json"
	}
	return distLabel + ".log.json"
}

// Persist writes the report and returns the file path. A single attempt,
// no retries: any failure aborts the run.
func (s *Store) Persist(r *types.Report) (string, error) {
	info, err := os.Stat(s.dir)
	if err != nil || !info.IsDir() {
		return "", fmt.Errorf("%w: %s", ErrMissingDir, s.dir)
	}

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrWrite, err)
	}
	data = append(data, '\n')

	path := filepath.Join(s.dir, FileName(r.Author, r.DistLabel))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("%w: %v", ErrWrite, err)
	}
	return path, nil
}
