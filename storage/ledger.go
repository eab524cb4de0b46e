// Package storage persists the upload ledger: the record of video titles
// already uploaded, consulted before every upload attempt.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Sentinel errors for ledger conditions.
var (
	// ErrLedgerCorrupt indicates the ledger file could not be parsed.
	ErrLedgerCorrupt = errors.New("storage: ledger corrupt")
	// ErrLockTimeout indicates a timeout acquiring the ledger file lock.
	ErrLockTimeout = errors.New("storage: lock acquisition timeout")
)

// LedgerFileName is the ledger's filename under the video destination root.
const LedgerFileName = "uploaded_video_list.json"

const lockTimeout = 5 * time.Second

// StorageError wraps storage errors with operation context.
// Use errors.As() to extract the failing operation:
//
//	var storErr *storage.StorageError
//	if errors.As(err, &storErr) {
//		fmt.Printf("ledger %s failed: %v\n", storErr.Op, storErr.Err)
//	}
type StorageError struct {
	// Op is the operation that failed ("open", "record", "lock").
	Op string
	// Path is the ledger file path.
	Path string
	// Err is the underlying error.
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap returns the underlying error for use with errors.Is() and errors.As().
func (e *StorageError) Unwrap() error { return e.Err }

// Ledger is the persisted set of uploaded video titles, backed by a single
// JSON array file. The check and record operations are deliberately
// separate: callers test membership with Has and append with Record after
// a successful upload.
//
// The pipeline is strictly sequential, but mutations still go through an
// advisory file lock so two overlapping batch runs cannot clobber each
// other's writes.
type Ledger struct {
	path   string
	titles []string
}

// Open loads the ledger at path. An absent file is an empty ledger; the
// file is created on the first Record.
func Open(path string) (*Ledger, error) {
	l := &Ledger{path: path}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return l, nil
		}
		return nil, &StorageError{Op: "open", Path: path, Err: err}
	}

	if err := json.Unmarshal(data, &l.titles); err != nil {
		return nil, &StorageError{Op: "open", Path: path, Err: ErrLedgerCorrupt}
	}

	return l, nil
}

// Has reports whether title has been recorded as uploaded.
func (l *Ledger) Has(title string) bool {
	for _, t := range l.titles {
		if t == title {
			return true
		}
	}
	return false
}

// Record appends title to the ledger and persists it. Recording a title
// that is already present is a no-op. Under the file lock the ledger is
// first re-read from disk, so titles recorded by a concurrent run are
// merged rather than overwritten, then the file is rewritten to a
// temporary sibling and renamed.
func (l *Ledger) Record(title string) error {
	if l.Has(title) {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return &StorageError{Op: "record", Path: l.path, Err: err}
	}

	lock := NewFileLock(l.path)
	if err := lock.Lock(lockTimeout); err != nil {
		return err
	}
	defer lock.Unlock()

	if err := l.reload(); err != nil {
		return err
	}
	if l.Has(title) {
		return nil
	}
	l.titles = append(l.titles, title)

	data, err := json.Marshal(l.titles)
	if err != nil {
		return &StorageError{Op: "record", Path: l.path, Err: err}
	}

	tmp := l.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return &StorageError{Op: "record", Path: l.path, Err: err}
	}
	if err := os.Rename(tmp, l.path); err != nil {
		os.Remove(tmp)
		return &StorageError{Op: "record", Path: l.path, Err: err}
	}

	return nil
}

// reload replaces the in-memory titles with the on-disk ledger. Called
// with the file lock held.
func (l *Ledger) reload() error {
	data, err := os.ReadFile(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			l.titles = nil
			return nil
		}
		return &StorageError{Op: "record", Path: l.path, Err: err}
	}
	if err := json.Unmarshal(data, &l.titles); err != nil {
		return &StorageError{Op: "record", Path: l.path, Err: ErrLedgerCorrupt}
	}
	return nil
}

// Len returns the number of recorded titles.
func (l *Ledger) Len() int {
	return len(l.titles)
}
