// Package metadata implements the single document-catalog store:
// every DocumentMetadata record, collected into one file and rewritten
// whole on every mutation.
package metadata

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/aqua777/docrag/diagnostics"
	"github.com/aqua777/docrag/ragerr"
	"github.com/aqua777/docrag/schema"
)

// Store is the document catalog. Reads are served from an in-memory
// cache; every mutation rewrites the whole file under an exclusive
// lock, mirroring the teacher's file-backed key-value store but
// specialized to a single DocumentMetadata collection instead of a
// generic map. Initialization is lazy and idempotent behind a
// sync.Once guard.
type Store struct {
	path string
	sink diagnostics.Sink

	initOnce sync.Once
	initErr  error

	mu   sync.RWMutex
	data map[string]schema.DocumentMetadata
}

// New returns a Store that will persist to path (typically
// "<base>/library.json"). It does no I/O until the first call.
func New(path string, sink diagnostics.Sink) *Store {
	if sink == nil {
		sink = diagnostics.Noop()
	}
	return &Store{path: path, sink: sink}
}

func (s *Store) ensureLoaded() error {
	s.initOnce.Do(func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.data = make(map[string]schema.DocumentMetadata)

		if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
			s.initErr = ragerr.New(ragerr.StorageFailure, "creating metadata store directory", err)
			return
		}
		raw, err := os.ReadFile(s.path)
		if os.IsNotExist(err) {
			return
		}
		if err != nil {
			s.initErr = ragerr.New(ragerr.StorageFailure, "reading metadata store", err)
			return
		}
		if len(raw) == 0 {
			return
		}
		var records []schema.DocumentMetadata
		if err := json.Unmarshal(raw, &records); err != nil {
			s.initErr = ragerr.New(ragerr.StorageFailure, "parsing metadata store", err)
			return
		}
		for _, md := range records {
			s.data[md.ID] = md
		}
	})
	return s.initErr
}

// LoadAll returns a snapshot copy of the whole catalog.
func (s *Store) LoadAll() (map[string]schema.DocumentMetadata, error) {
	if err := s.ensureLoaded(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]schema.DocumentMetadata, len(s.data))
	for k, v := range s.data {
		out[k] = v
	}
	return out, nil
}

// Get returns a document's metadata, or ragerr.NotFound if absent.
func (s *Store) Get(id string) (schema.DocumentMetadata, error) {
	if err := s.ensureLoaded(); err != nil {
		return schema.DocumentMetadata{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	md, ok := s.data[id]
	if !ok {
		return schema.DocumentMetadata{}, ragerr.NotFoundf("document", id)
	}
	return md, nil
}

// Upsert inserts or replaces one document's metadata and persists.
func (s *Store) Upsert(md schema.DocumentMetadata) error {
	if err := s.ensureLoaded(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[md.ID] = md
	return s.persistLocked()
}

// Delete removes a document's metadata and persists. Deleting an
// absent id is a no-op, not an error.
func (s *Store) Delete(id string) error {
	if err := s.ensureLoaded(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.data, id)
	return s.persistLocked()
}

// SaveAll replaces the entire catalog and persists it.
func (s *Store) SaveAll(records map[string]schema.DocumentMetadata) error {
	if err := s.ensureLoaded(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data = make(map[string]schema.DocumentMetadata, len(records))
	for k, v := range records {
		s.data[k] = v
	}
	return s.persistLocked()
}

// persistLocked rewrites the whole catalog file. Caller must hold mu.
func (s *Store) persistLocked() error {
	records := make([]schema.DocumentMetadata, 0, len(s.data))
	for _, md := range s.data {
		records = append(records, md)
	}
	raw, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return ragerr.New(ragerr.StorageFailure, "serializing metadata store", err)
	}
	if err := os.WriteFile(s.path, raw, 0o644); err != nil {
		s.sink.Error("failed to persist metadata store", "path", s.path, "error", err.Error())
		return ragerr.New(ragerr.StorageFailure, "writing metadata store", err)
	}
	return nil
}
