// Package history indexes the reports written during and across runs.
// It backs the list command and the duplicate check on the optional
// submission path. It is a query index only: losing it never loses a
// report, the files in the report directory stay authoritative.
package history

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/btree"
	"go.etcd.io/bbolt"

	"github.com/smokerep/smokerep/types"
)

var (
	bucketReports = []byte("reports")
	bucketMeta    = []byte("meta")
)

var keyCurrentRevision = []byte("current_revision")

// ReportState is the indexed summary of the latest report for one
// (author, label) pair.
type ReportState struct {
	Author    string      `json:"author"`
	DistLabel string      `json:"dist_label"`
	Dist      string      `json:"dist"`
	Grade     types.Grade `json:"grade"`
	Path      string      `json:"path"`
	Revision  int64       `json:"revision"`
	WrittenAt time.Time   `json:"written_at"`
}

// Key identifies the pair the state belongs to.
func (s *ReportState) Key() string { return stateKey(s.Author, s.DistLabel) }

func stateKey(author, distLabel string) string { return author + "/" + distLabel }

// Index is a bbolt-backed report index with an in-memory btree for
// ordered lookups.
type Index struct {
	mu         sync.RWMutex
	index      *btree.BTreeG[*ReportState]
	db         *bbolt.DB
	currentRev int64
}

// Open opens or creates the index database at path.
func Open(path string) (*Index, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, bucket := range [][]byte{bucketReports, bucketMeta} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	idx := &Index{
		index: btree.NewG[*ReportState](32, func(a, b *ReportState) bool {
			return a.Key() < b.Key()
		}),
		db: db,
	}

	if err := idx.load(); err != nil {
		db.Close()
		return nil, err
	}
	return idx, nil
}

// Close closes the underlying database
func (x *Index) Close() error {
	return x.db.Close()
}

// Record indexes a freshly written report and returns the new revision.
// Recording the same (author, label) pair again replaces the previous
// state, mirroring the store's overwrite semantics.
func (x *Index) Record(r *types.Report, path string) (int64, error) {
	x.mu.Lock()
	defer x.mu.Unlock()

	x.currentRev++
	state := &ReportState{
		Author:    r.Author,
		DistLabel: r.DistLabel,
		Dist:      r.Dist,
		Grade:     r.Grade,
		Path:      path,
		Revision:  x.currentRev,
		WrittenAt: time.Now(),
	}

	err := x.db.Update(func(tx *bbolt.Tx) error {
		value, err := json.Marshal(state)
		if err != nil {
			return err
		}
		if err := tx.Bucket(bucketReports).Put([]byte(state.Key()), value); err != nil {
			return err
		}
		return tx.Bucket(bucketMeta).Put(keyCurrentRevision, int64ToBytes(x.currentRev))
	})
	if err != nil {
		x.currentRev--
		return 0, fmt.Errorf("failed to record report: %w", err)
	}

	x.index.ReplaceOrInsert(state)
	return state.Revision, nil
}

// Get returns the indexed state for a pair, or nil when never written.
func (x *Index) Get(author, distLabel string) *ReportState {
	x.mu.RLock()
	defer x.mu.RUnlock()

	probe := &ReportState{Author: author, DistLabel: distLabel}
	if state, ok := x.index.Get(probe); ok {
		return state
	}
	return nil
}

// Seen reports whether a report for the pair was ever written.
func (x *Index) Seen(author, distLabel string) bool {
	return x.Get(author, distLabel) != nil
}

// List returns all indexed states ordered by (author, label).
func (x *Index) List() []*ReportState {
	x.mu.RLock()
	defer x.mu.RUnlock()

	states := make([]*ReportState, 0, x.index.Len())
	x.index.Ascend(func(s *ReportState) bool {
		states = append(states, s)
		return true
	})
	return states
}

// CurrentRevision returns the latest revision number
func (x *Index) CurrentRevision() int64 {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.currentRev
}

// load restores the revision counter and rebuilds the btree from disk
func (x *Index) load() error {
	return x.db.View(func(tx *bbolt.Tx) error {
		if v := tx.Bucket(bucketMeta).Get(keyCurrentRevision); v != nil {
			x.currentRev = bytesToInt64(v)
		}
		return tx.Bucket(bucketReports).ForEach(func(_, v []byte) error {
			var state ReportState
			if err := json.Unmarshal(v, &state); err != nil {
				return fmt.Errorf("failed to unmarshal report state: %w", err)
			}
			x.index.ReplaceOrInsert(&state)
			return nil
		})
	})
}

func int64ToBytes(n int64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(n))
	return buf
}

func bytesToInt64(b []byte) int64 {
	return int64(binary.BigEndian.Uint64(b))
}
