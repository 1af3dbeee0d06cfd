// Package config holds the read-only, always-injected settings every
// docrag component takes as a constructor argument. Loading these values
// from a file or environment is explicitly out of scope here (that's
// the application-configuration-loading component the desktop app
// owns) — this package only defines the struct and its defaults.
package config

import (
	"time"

	"github.com/aqua777/docrag/validation"
)

// Config is the read-only accessor surface described by the external
// interfaces table: chunk sizing, retrieval thresholds, and the
// embedding/retry budget.
type Config struct {
	// ChunkSize is the soft maximum character length per chunk.
	ChunkSize int
	// ChunkOverlap is the number of characters re-used across adjacent
	// chunks.
	ChunkOverlap int
	// MaxRetrievedChunks is the default retrieval top-K, used whenever
	// a caller passes K <= 0.
	MaxRetrievedChunks int
	// MinSimilarityScore is the lower bound a retrieved chunk's score
	// must clear.
	MinSimilarityScore float64
	// EmbeddingBatchSize bounds how many chunks of a single document
	// the orchestrator embeds concurrently per batch.
	EmbeddingBatchSize int
	// MaxConcurrentRequests bounds the embedding provider's own
	// in-flight request count, independent of the orchestrator's batch
	// size.
	MaxConcurrentRequests int
	// MaxRetries bounds how many times a failed embedding call is
	// retried. Every error is retried, not only timeouts and 5xx replies.
	MaxRetries int
	// RetryDelay is the base exponential backoff unit: attempt N waits
	// RetryDelay * N.
	RetryDelay time.Duration
}

// Default returns the documented defaults from the external interfaces
// table.
func Default() Config {
	return Config{
		ChunkSize:             500,
		ChunkOverlap:          100,
		MaxRetrievedChunks:    4,
		MinSimilarityScore:    0.1,
		EmbeddingBatchSize:    8,
		MaxConcurrentRequests: 4,
		MaxRetries:            3,
		RetryDelay:            time.Second,
	}
}

// Validate checks the chunk-sizing invariants (chunk_size positive,
// chunk_overlap non-negative and strictly less than chunk_size).
func (c Config) Validate() error {
	return validation.ValidateChunkParams(c.ChunkSize, c.ChunkOverlap)
}

// RetrievalK returns k if positive, else the configured default.
func (c Config) RetrievalK(k int) int {
	if k > 0 {
		return k
	}
	return c.MaxRetrievedChunks
}
