package retrieval

import (
	"sync"
	"time"

	"github.com/aqua777/docrag/storage/vectorstore"
)

// queryCache is a small LRU+TTL cache keyed on a query's embedding hash,
// allow-list, and K, so identical queries against an unchanged index
// skip the vector scan entirely.
type queryCache struct {
	mu      sync.Mutex
	entries map[string]queryCacheEntry
	order   []string
	maxSize int
	ttl     time.Duration
}

type queryCacheEntry struct {
	results   []vectorstore.ScoredChunk
	timestamp time.Time
}

func newQueryCache(maxSize int, ttl time.Duration) *queryCache {
	return &queryCache{
		entries: make(map[string]queryCacheEntry, maxSize),
		order:   make([]string, 0, maxSize),
		maxSize: maxSize,
		ttl:     ttl,
	}
}

func (qc *queryCache) get(key string) ([]vectorstore.ScoredChunk, bool) {
	qc.mu.Lock()
	defer qc.mu.Unlock()
	entry, ok := qc.entries[key]
	if !ok {
		return nil, false
	}
	for i, k := range qc.order {
		if k == key {
			qc.order = append(qc.order[:i], qc.order[i+1:]...)
			break
		}
	}
	if time.Since(entry.timestamp) > qc.ttl {
		delete(qc.entries, key)
		return nil, false
	}
	qc.order = append(qc.order, key)
	return entry.results, true
}

func (qc *queryCache) put(key string, results []vectorstore.ScoredChunk) {
	qc.mu.Lock()
	defer qc.mu.Unlock()
	if _, ok := qc.entries[key]; !ok {
		if len(qc.order) >= qc.maxSize {
			oldest := qc.order[0]
			qc.order = qc.order[1:]
			delete(qc.entries, oldest)
		}
		qc.order = append(qc.order, key)
	}
	qc.entries[key] = queryCacheEntry{results: results, timestamp: time.Now()}
}

// invalidate drops every cached entry. Call after any mutation to the
// vector store (AddVectors, RemoveVectors) so retrieval never serves
// results against a stale index.
func (qc *queryCache) invalidate() {
	qc.mu.Lock()
	defer qc.mu.Unlock()
	qc.entries = make(map[string]queryCacheEntry, qc.maxSize)
	qc.order = qc.order[:0]
}
