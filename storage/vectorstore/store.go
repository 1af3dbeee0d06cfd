package vectorstore

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/aqua777/docrag/diagnostics"
	"github.com/aqua777/docrag/ragerr"
	"github.com/aqua777/docrag/schema"
)

// SQLiteStore is the linear-scan cosine-similarity vector store
// prescribed by the design: candidate rows are read in full and scored
// in-process, which keeps the interface swappable for an approximate
// index later without touching callers.
type SQLiteStore struct {
	conn *ConnectionProvider
	sink diagnostics.Sink
}

func NewSQLiteStore(conn *ConnectionProvider, sink diagnostics.Sink) *SQLiteStore {
	if sink == nil {
		sink = diagnostics.Noop()
	}
	return &SQLiteStore{conn: conn, sink: sink}
}

// ScoredChunk pairs a chunk with its similarity score against a query.
type ScoredChunk struct {
	Chunk schema.Chunk
	Score float64
}

// AddVectors stores one document's chunks: in one transaction it
// upserts the document row, deletes any prior chunk rows for it, then
// batch-inserts the chunks. Every row is stored under documentID; the
// chunks' own DocumentID fields are not consulted or grouped on. Chunks
// with an empty embedding are skipped with a warning rather than persisted.
func (s *SQLiteStore) AddVectors(documentID, documentName string, chunks []schema.Chunk) error {
	db, err := s.conn.GetConnection()
	if err != nil {
		return err
	}

	tx, err := db.Begin()
	if err != nil {
		return ragerr.New(ragerr.StorageFailure, "beginning add_vectors transaction", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`INSERT INTO Documents (DocumentId, Name) VALUES (?, ?)
		ON CONFLICT(DocumentId) DO UPDATE SET Name=excluded.Name`, documentID, documentName); err != nil {
		return ragerr.New(ragerr.StorageFailure, "upserting document row", err)
	}
	if _, err := tx.Exec(`DELETE FROM Chunks WHERE DocumentId = ?`, documentID); err != nil {
		return ragerr.New(ragerr.StorageFailure, "clearing prior chunk rows", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO Chunks (ChunkId, DocumentId, Content, ChunkIndex, Source, VectorJson) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return ragerr.New(ragerr.StorageFailure, "preparing chunk insert", err)
	}
	defer stmt.Close()

	for _, c := range chunks {
		if len(c.Embedding) == 0 {
			s.sink.Warn("skipping chunk with empty embedding", "chunk_id", c.ID, "document_id", documentID)
			continue
		}
		vecJSON, err := json.Marshal(c.Embedding)
		if err != nil {
			return ragerr.New(ragerr.StorageFailure, "serializing chunk embedding", err)
		}
		if _, err := stmt.Exec(c.ID, documentID, c.Content, c.ChunkIndex, c.Source, string(vecJSON)); err != nil {
			return ragerr.New(ragerr.StorageFailure, "inserting chunk row", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return ragerr.New(ragerr.StorageFailure, "committing add_vectors transaction", err)
	}
	return nil
}

// RemoveVectors deletes a document's chunks then its document row, in
// one transaction.
func (s *SQLiteStore) RemoveVectors(documentID string) error {
	db, err := s.conn.GetConnection()
	if err != nil {
		return err
	}
	tx, err := db.Begin()
	if err != nil {
		return ragerr.New(ragerr.StorageFailure, "beginning remove_vectors transaction", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM Chunks WHERE DocumentId = ?`, documentID); err != nil {
		return ragerr.New(ragerr.StorageFailure, "deleting chunk rows", err)
	}
	if _, err := tx.Exec(`DELETE FROM Documents WHERE DocumentId = ?`, documentID); err != nil {
		return ragerr.New(ragerr.StorageFailure, "deleting document row", err)
	}
	if err := tx.Commit(); err != nil {
		return ragerr.New(ragerr.StorageFailure, "committing remove_vectors transaction", err)
	}
	return nil
}

// Search scores every chunk in the store against query and returns the
// top K by cosine similarity, descending.
func (s *SQLiteStore) Search(query []float32, k int) ([]ScoredChunk, error) {
	return s.SearchInDocuments(query, nil, k)
}

// SearchInDocuments restricts the candidate set to docIDs when
// non-empty, otherwise scores the whole store.
func (s *SQLiteStore) SearchInDocuments(query []float32, docIDs []string, k int) ([]ScoredChunk, error) {
	db, err := s.conn.GetConnection()
	if err != nil {
		return nil, err
	}

	var rows *sql.Rows
	if len(docIDs) == 0 {
		rows, err = db.Query(`SELECT ChunkId, DocumentId, Content, ChunkIndex, Source, VectorJson FROM Chunks`)
	} else {
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(docIDs)), ",")
		args := make([]any, len(docIDs))
		for i, id := range docIDs {
			args[i] = id
		}
		rows, err = db.Query(fmt.Sprintf(`SELECT ChunkId, DocumentId, Content, ChunkIndex, Source, VectorJson FROM Chunks WHERE DocumentId IN (%s)`, placeholders), args...)
	}
	if err != nil {
		return nil, ragerr.New(ragerr.StorageFailure, "querying chunks for search", err)
	}
	defer rows.Close()

	var scored []ScoredChunk
	for rows.Next() {
		var c schema.Chunk
		var vecJSON string
		if err := rows.Scan(&c.ID, &c.DocumentID, &c.Content, &c.ChunkIndex, &c.Source, &vecJSON); err != nil {
			return nil, ragerr.New(ragerr.StorageFailure, "scanning chunk row", err)
		}
		if err := json.Unmarshal([]byte(vecJSON), &c.Embedding); err != nil {
			s.sink.Warn("skipping chunk with corrupt vector json", "chunk_id", c.ID, "error", err.Error())
			continue
		}
		scored = append(scored, ScoredChunk{Chunk: c, Score: cosineSimilarity(query, c.Embedding)})
	}
	if err := rows.Err(); err != nil {
		return nil, ragerr.New(ragerr.StorageFailure, "iterating chunk rows", err)
	}

	sort.Slice(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	if k > 0 && k < len(scored) {
		scored = scored[:k]
	}
	return scored, nil
}

// GetChunkByID performs a point lookup by primary key, returning
// ragerr.NotFound if absent.
func (s *SQLiteStore) GetChunkByID(chunkID string) (schema.Chunk, error) {
	db, err := s.conn.GetConnection()
	if err != nil {
		return schema.Chunk{}, err
	}

	var c schema.Chunk
	var vecJSON string
	err = db.QueryRow(`SELECT ChunkId, DocumentId, Content, ChunkIndex, Source, VectorJson FROM Chunks WHERE ChunkId = ?`, chunkID).
		Scan(&c.ID, &c.DocumentID, &c.Content, &c.ChunkIndex, &c.Source, &vecJSON)
	if err == sql.ErrNoRows {
		return schema.Chunk{}, ragerr.NotFoundf("chunk", chunkID)
	}
	if err != nil {
		return schema.Chunk{}, ragerr.New(ragerr.StorageFailure, "looking up chunk by id", err)
	}
	if err := json.Unmarshal([]byte(vecJSON), &c.Embedding); err != nil {
		return schema.Chunk{}, ragerr.New(ragerr.StorageFailure, "parsing chunk vector json", err)
	}
	return c, nil
}

// cosineSimilarity returns dot(a,b) / (|a||b|), defined as 0 when
// either magnitude is 0 or the lengths mismatch.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
