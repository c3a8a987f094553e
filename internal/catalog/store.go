package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/sirupsen/logrus"
)

// DefaultMaxFileSize caps the catalog document at 1 MiB, matching the limits
// of the static hosting consuming it.
const DefaultMaxFileSize = 1024 * 1024

// lockRetryDelay is the poll interval while waiting on a sibling writer.
const lockRetryDelay = 100 * time.Millisecond

// Store persists the catalog as a single JSON document. Every mutation runs
// as a read-latest/mutate/write-back cycle under a cross-process file lock so
// parallel architecture workers never lose each other's commits.
type Store struct {
	path    string
	lock    *flock.Flock
	maxSize int64
}

// NewStore creates a store for the catalog file at path.
func NewStore(path string) *Store {
	return &Store{
		path:    path,
		lock:    flock.New(path + ".lock"),
		maxSize: DefaultMaxFileSize,
	}
}

// SetMaxFileSize overrides the catalog size cap (0 disables the check).
func (s *Store) SetMaxFileSize(limit int64) {
	s.maxSize = limit
}

// Path returns the catalog file location.
func (s *Store) Path() string {
	return s.path
}

// Load reads the current catalog. A missing file yields an empty catalog so
// first runs bootstrap cleanly.
func (s *Store) Load() (*Catalog, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewCatalog(), nil
		}
		return nil, &PipelineError{Type: ErrStore, Err: fmt.Errorf("read catalog: %w", err)}
	}

	var c Catalog
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, &PipelineError{Type: ErrStore, Err: fmt.Errorf("parse catalog: %w", err)}
	}
	return &c, nil
}

// Update applies a mutation to the latest committed catalog and writes the
// result back atomically. The mutator receives a freshly re-read document, so
// callers must restrict themselves to the records they own (their
// architecture partition) and never assume the rest of the catalog matches
// what they read earlier in the run.
func (s *Store) Update(ctx context.Context, mutate func(*Catalog) error) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return &PipelineError{Type: ErrStore, Err: err}
	}

	locked, err := s.lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return &PipelineError{Type: ErrStore, Err: fmt.Errorf("acquire catalog lock: %w", err)}
	}
	if !locked {
		return &PipelineError{Type: ErrStore, Err: fmt.Errorf("catalog lock unavailable")}
	}
	defer func() {
		if err := s.lock.Unlock(); err != nil {
			logrus.Warnf("Failed to release catalog lock: %v", err)
		}
	}()

	// Re-read under the lock; this is the merge point for concurrent
	// architecture workers.
	latest, err := s.Load()
	if err != nil {
		return err
	}

	if err := mutate(latest); err != nil {
		return err
	}
	latest.touch()

	return s.write(latest)
}

// write serializes and atomically replaces the catalog file. The document on
// disk is valid JSON at every observable moment.
func (s *Store) write(c *Catalog) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return &PipelineError{Type: ErrStore, Err: err}
	}
	data = append(data, '\n')

	if s.maxSize > 0 && int64(len(data)) > s.maxSize {
		return &PipelineError{
			Type: ErrStore,
			Err:  fmt.Errorf("%w: %d bytes (limit %d)", ErrCatalogTooLarge, len(data), s.maxSize),
		}
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".catalog-*.json")
	if err != nil {
		return &PipelineError{Type: ErrStore, Err: err}
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return &PipelineError{Type: ErrStore, Err: err}
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return &PipelineError{Type: ErrStore, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &PipelineError{Type: ErrStore, Err: err}
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		return &PipelineError{Type: ErrStore, Err: err}
	}

	logrus.Debugf("Catalog committed: %d applications, %d bytes", c.Metadata.TotalApplications, len(data))
	return nil
}

// CommitRecords merges one architecture partition's records into the latest
// catalog. Only records matching arch are touched; sibling partitions pass
// through untouched even if they changed since this worker started.
func (s *Store) CommitRecords(ctx context.Context, arch string, records []*Application) error {
	return s.Update(ctx, func(c *Catalog) error {
		for _, record := range records {
			if record.Architecture != arch {
				return &PipelineError{
					Type: ErrStore,
					App:  record.ID,
					Err:  fmt.Errorf("record architecture %q outside partition %q", record.Architecture, arch),
				}
			}
			c.Upsert(record)
		}
		return nil
	})
}
