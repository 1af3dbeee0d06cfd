// Package retrieval implements RetrievalService: the read side of the
// pipeline that turns a query embedding into a ranked, threshold- and
// allow-list-filtered set of chunks.
package retrieval

import (
	"context"
	"encoding/binary"
	"hash/fnv"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/aqua777/docrag/config"
	"github.com/aqua777/docrag/diagnostics"
	"github.com/aqua777/docrag/embedding"
	"github.com/aqua777/docrag/ragerr"
	"github.com/aqua777/docrag/repository"
	"github.com/aqua777/docrag/storage/vectorstore"
)

// defaultCacheSize and defaultCacheTTL size the query cache; the value
// mirrors the scale of a single-user desktop session rather than a
// shared multi-tenant cache.
const (
	defaultCacheSize = 256
	defaultCacheTTL  = 5 * time.Minute

	// overfetchFactor controls how many extra candidates are pulled
	// from the vector store so that MinSimilarityScore filtering still
	// leaves K results when some candidates fall below the threshold.
	overfetchFactor = 2
)

// Service embeds a query, searches the allowed documents, and applies
// the similarity threshold and top-K cut.
type Service struct {
	cfg   config.Config
	repo  *repository.Repository
	embed embedding.Provider
	sink  diagnostics.Sink
	cache *queryCache
}

func New(cfg config.Config, repo *repository.Repository, embed embedding.Provider, sink diagnostics.Sink) *Service {
	if sink == nil {
		sink = diagnostics.Noop()
	}
	return &Service{cfg: cfg, repo: repo, embed: embed, sink: sink, cache: newQueryCache(defaultCacheSize, defaultCacheTTL)}
}

// InvalidateCache drops all cached query results. Call after ingestion
// mutates the vector store so retrieval never serves a stale index.
func (s *Service) InvalidateCache() {
	s.cache.invalidate()
}

// Retrieve embeds query, searches within allowedDocIDs, and returns up
// to K chunks scoring at least MinSimilarityScore, highest first. An
// empty query is rejected; an empty allow-list yields an empty result
// rather than an unfiltered scan. k <= 0 uses the configured default.
func (s *Service) Retrieve(ctx context.Context, query string, allowedDocIDs []string, k int) ([]vectorstore.ScoredChunk, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ragerr.New(ragerr.InvalidArgument, "query must not be empty", nil)
	}
	if len(allowedDocIDs) == 0 {
		return nil, nil
	}

	k = s.cfg.RetrievalK(k)

	vec, err := s.embed.Embed(ctx, query)
	if err != nil {
		return nil, ragerr.New(ragerr.EmbeddingFailure, "embedding query", err)
	}

	cacheKey := buildCacheKey(vec, allowedDocIDs, k)
	if cached, ok := s.cache.get(cacheKey); ok {
		return cached, nil
	}

	candidates, err := s.repo.Search(vec, allowedDocIDs, overfetchFactor*k)
	if err != nil {
		return nil, err
	}

	// candidates arrive sorted descending by score, so filtering in
	// place preserves order; no re-sort is needed.
	results := make([]vectorstore.ScoredChunk, 0, k)
	for _, c := range candidates {
		if c.Score < s.cfg.MinSimilarityScore {
			continue
		}
		results = append(results, c)
		if len(results) == k {
			break
		}
	}

	s.cache.put(cacheKey, results)
	return results, nil
}

// buildCacheKey hashes the query vector's raw bytes together with a
// sorted copy of the allow-list and K, so two calls for the same
// logical query collide regardless of allow-list input order.
func buildCacheKey(vec []float32, allowedDocIDs []string, k int) string {
	sorted := append([]string(nil), allowedDocIDs...)
	sort.Strings(sorted)

	h := fnv.New64a()
	buf := make([]byte, 4)
	for _, f := range vec {
		binary.LittleEndian.PutUint32(buf, math.Float32bits(f))
		h.Write(buf)
	}
	h.Write([]byte(strings.Join(sorted, "\x1f")))

	var kbuf [8]byte
	binary.LittleEndian.PutUint64(kbuf[:], uint64(k))
	h.Write(kbuf[:])

	return string(h.Sum(nil))
}
