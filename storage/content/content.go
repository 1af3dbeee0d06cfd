// Package content implements the file-per-document content and
// embedding stores: one text file for raw content, one JSON file for
// the serialized chunk list, each document's pair of files serialized
// by a lock keyed on its id.
package content

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/aqua777/docrag/ragerr"
	"github.com/aqua777/docrag/schema"
)

// Store persists document content and chunk lists to BasePath/documents
// and BasePath/embeddings respectively. Locks for distinct documents
// are independent; only the lock-map mutation itself is shared.
//
// The per-document lock map is plain stdlib (map + mutex) rather than a
// third-party concurrent map: the operations it guards are file reads
// and writes, already far slower than the map access they bracket, and
// the map is small (one entry per document touched this process
// lifetime) so a single mutex around plain map access never becomes a
// contended hot path.
type Store struct {
	basePath string

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

func New(basePath string) *Store {
	return &Store{basePath: basePath, locks: make(map[string]*sync.Mutex)}
}

func (s *Store) lockFor(documentID string) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()

	l, ok := s.locks[documentID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[documentID] = l
	}
	return l
}

// forgetLock drops a document's lock entry once it is known to be
// fully deleted, so the map does not grow unbounded across the
// lifetime of a long-running process. Safe to call while other
// goroutines hold the lock value already retrieved; it only removes
// the map entry, not the mutex itself.
func (s *Store) forgetLock(documentID string) {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	delete(s.locks, documentID)
}

func (s *Store) contentPath(documentID string) string {
	return filepath.Join(s.basePath, "documents", documentID+".txt")
}

func (s *Store) embeddingsPath(documentID string) string {
	return filepath.Join(s.basePath, "embeddings", documentID+".json")
}

// LoadContent returns a document's raw content, or "" if no content
// file exists yet.
func (s *Store) LoadContent(documentID string) (string, error) {
	l := s.lockFor(documentID)
	l.Lock()
	defer l.Unlock()

	raw, err := os.ReadFile(s.contentPath(documentID))
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", ragerr.New(ragerr.StorageFailure, "loading document content", err)
	}
	return string(raw), nil
}

// SaveContent writes a document's raw content, creating the documents
// directory if needed.
func (s *Store) SaveContent(documentID, content string) error {
	l := s.lockFor(documentID)
	l.Lock()
	defer l.Unlock()

	path := s.contentPath(documentID)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return ragerr.New(ragerr.StorageFailure, "creating content directory", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return ragerr.New(ragerr.StorageFailure, "saving document content", err)
	}
	return nil
}

// DeleteContent removes a document's content file. Missing files are
// not an error.
func (s *Store) DeleteContent(documentID string) error {
	l := s.lockFor(documentID)
	l.Lock()
	defer l.Unlock()

	if err := os.Remove(s.contentPath(documentID)); err != nil && !os.IsNotExist(err) {
		return ragerr.New(ragerr.StorageFailure, "deleting document content", err)
	}
	return nil
}

// LoadEmbeddings returns the serialized chunk list for a document, or
// nil if no embeddings file exists yet.
func (s *Store) LoadEmbeddings(documentID string) ([]schema.Chunk, error) {
	l := s.lockFor(documentID)
	l.Lock()
	defer l.Unlock()

	raw, err := os.ReadFile(s.embeddingsPath(documentID))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, ragerr.New(ragerr.StorageFailure, "loading document embeddings", err)
	}
	var chunks []schema.Chunk
	if err := json.Unmarshal(raw, &chunks); err != nil {
		return nil, ragerr.New(ragerr.StorageFailure, "parsing document embeddings", err)
	}
	return chunks, nil
}

// SaveEmbeddings writes a document's chunk list, creating the
// embeddings directory if needed.
func (s *Store) SaveEmbeddings(documentID string, chunks []schema.Chunk) error {
	l := s.lockFor(documentID)
	l.Lock()
	defer l.Unlock()

	path := s.embeddingsPath(documentID)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return ragerr.New(ragerr.StorageFailure, "creating embeddings directory", err)
	}
	raw, err := json.Marshal(chunks)
	if err != nil {
		return ragerr.New(ragerr.StorageFailure, "serializing document embeddings", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return ragerr.New(ragerr.StorageFailure, "saving document embeddings", err)
	}
	return nil
}

// DeleteEmbeddings removes a document's embeddings file. Missing files
// are not an error.
func (s *Store) DeleteEmbeddings(documentID string) error {
	l := s.lockFor(documentID)
	l.Lock()
	defer l.Unlock()

	if err := os.Remove(s.embeddingsPath(documentID)); err != nil && !os.IsNotExist(err) {
		return ragerr.New(ragerr.StorageFailure, "deleting document embeddings", err)
	}
	return nil
}

// Forget drops the lock entry for a document that has been fully
// deleted (both content and embeddings removed). Call after a
// successful delete to bound lock-map growth.
func (s *Store) Forget(documentID string) {
	s.forgetLock(documentID)
}
