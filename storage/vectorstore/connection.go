// Package vectorstore is the SQLite-backed embedding index: schema
// ownership, one-shot legacy-file migration, and linear cosine-
// similarity search.
package vectorstore

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"github.com/aqua777/docrag/diagnostics"
	"github.com/aqua777/docrag/ragerr"
	"github.com/aqua777/docrag/schema"
)

const schemaDDL = `
CREATE TABLE IF NOT EXISTS Documents (
	DocumentId TEXT PRIMARY KEY,
	Name       TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS Chunks (
	ChunkId    TEXT PRIMARY KEY,
	DocumentId TEXT NOT NULL REFERENCES Documents(DocumentId) ON DELETE CASCADE,
	Content    TEXT NOT NULL,
	ChunkIndex INTEGER NOT NULL,
	Source     TEXT,
	VectorJson TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_chunks_document_id ON Chunks(DocumentId);
CREATE INDEX IF NOT EXISTS idx_chunks_chunk_index ON Chunks(ChunkIndex);
`

// ConnectionProvider owns the single database connection for the
// vector store: schema creation and legacy migration happen exactly
// once, under initMu, before any store call is permitted to run.
type ConnectionProvider struct {
	dbPath         string
	legacyEmbedDir string
	sink           diagnostics.Sink
	initMu         sync.Mutex
	initialized    bool
	db             *sql.DB
}

func NewConnectionProvider(dbPath, legacyEmbedDir string, sink diagnostics.Sink) *ConnectionProvider {
	if sink == nil {
		sink = diagnostics.Noop()
	}
	return &ConnectionProvider{dbPath: dbPath, legacyEmbedDir: legacyEmbedDir, sink: sink}
}

// Initialize creates the schema if absent, sets WAL mode and foreign
// keys on, and runs the one-shot legacy migration. Must be called once
// at startup before GetConnection.
func (p *ConnectionProvider) Initialize() error {
	p.initMu.Lock()
	defer p.initMu.Unlock()
	if p.initialized {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(p.dbPath), 0o755); err != nil {
		return ragerr.New(ragerr.StorageFailure, "creating vector store directory", err)
	}
	db, err := sql.Open("sqlite3", p.dbPath)
	if err != nil {
		return ragerr.New(ragerr.StorageFailure, "opening vector store database", err)
	}
	db.SetMaxOpenConns(1) // single connection: SQLite in WAL mode serializes writers internally

	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA foreign_keys=ON"} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return ragerr.New(ragerr.StorageFailure, "setting pragma: "+pragma, err)
		}
	}
	if _, err := db.Exec(schemaDDL); err != nil {
		db.Close()
		return ragerr.New(ragerr.StorageFailure, "creating vector store schema", err)
	}

	p.db = db
	p.initialized = true

	if err := p.migrateLegacyLocked(); err != nil {
		p.sink.Warn("legacy embedding migration failed", "error", err.Error())
	}
	return nil
}

// GetConnection returns the sole connection handle. Initialize must
// have been called first.
func (p *ConnectionProvider) GetConnection() (*sql.DB, error) {
	p.initMu.Lock()
	defer p.initMu.Unlock()
	if !p.initialized {
		return nil, ragerr.New(ragerr.StorageFailure, "vector store used before Initialize", nil)
	}
	return p.db, nil
}

// Close flushes WAL and disposes of the connection.
func (p *ConnectionProvider) Close() error {
	p.initMu.Lock()
	defer p.initMu.Unlock()
	if p.db == nil {
		return nil
	}
	if _, err := p.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		p.sink.Warn("wal checkpoint on close failed", "error", err.Error())
	}
	err := p.db.Close()
	p.db = nil
	p.initialized = false
	return err
}

// migrateLegacyLocked runs the one-shot migration: if Chunks is empty
// and the legacy embeddings directory holds *.json or *.vectors.json
// files, each file's chunk list is inserted. Caller must hold initMu.
func (p *ConnectionProvider) migrateLegacyLocked() error {
	if p.legacyEmbedDir == "" {
		return nil
	}
	var count int
	if err := p.db.QueryRow("SELECT COUNT(*) FROM Chunks").Scan(&count); err != nil {
		return fmt.Errorf("counting chunks: %w", err)
	}
	if count > 0 {
		return nil
	}

	entries, err := os.ReadDir(p.legacyEmbedDir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading legacy embeddings directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		var stem string
		switch {
		case strings.HasSuffix(name, ".vectors.json"):
			stem = strings.TrimSuffix(name, ".vectors.json")
		case strings.HasSuffix(name, ".json"):
			stem = strings.TrimSuffix(name, ".json")
		default:
			continue
		}

		if err := p.migrateFileLocked(filepath.Join(p.legacyEmbedDir, name), stem); err != nil {
			p.sink.Warn("skipping legacy embedding file during migration", "file", name, "error", err.Error())
			continue
		}
	}
	return nil
}

func (p *ConnectionProvider) migrateFileLocked(path, documentID string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var chunks []schema.Chunk
	if err := json.Unmarshal(raw, &chunks); err != nil {
		return err
	}
	if len(chunks) == 0 {
		return nil
	}

	tx, err := p.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`INSERT OR IGNORE INTO Documents (DocumentId, Name) VALUES (?, ?)`, documentID, documentID); err != nil {
		return err
	}
	for _, c := range chunks {
		vecJSON, err := json.Marshal(c.Embedding)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(
			`INSERT OR REPLACE INTO Chunks (ChunkId, DocumentId, Content, ChunkIndex, Source, VectorJson) VALUES (?, ?, ?, ?, ?, ?)`,
			c.ID, documentID, c.Content, c.ChunkIndex, c.Source, string(vecJSON),
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}
