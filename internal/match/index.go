package match

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/talenthunt/screener/internal/ai"
)

// Index is a small in-memory vector index over job descriptions. It keeps
// the door open for matching one resume against many open roles. Writes are
// serialized; scoring correctness does not depend on it.
type Index struct {
	embedder ai.Embedder

	mu      sync.RWMutex
	entries []indexEntry
}

type indexEntry struct {
	id     string
	text   string
	vector []float32
}

// Hit is a single search result.
type Hit struct {
	ID    string
	Score float64
}

func NewIndex(embedder ai.Embedder) *Index {
	return &Index{embedder: embedder}
}

// Add embeds the text and stores it under id, replacing any previous entry
// with the same id.
func (ix *Index) Add(ctx context.Context, id, text string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("index id must not be empty")
	}
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("index text must not be empty")
	}

	vector, err := ix.embedder.Embed(ctx, text)
	if err != nil {
		return ai.Unavailable(fmt.Errorf("embedding %q: %w", id, err))
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	for i := range ix.entries {
		if ix.entries[i].id == id {
			ix.entries[i] = indexEntry{id: id, text: text, vector: vector}
			return nil
		}
	}
	ix.entries = append(ix.entries, indexEntry{id: id, text: text, vector: vector})

	return nil
}

// Search returns the top-k entries by cosine similarity to the query.
func (ix *Index) Search(ctx context.Context, query string, k int) ([]Hit, error) {
	if k <= 0 || strings.TrimSpace(query) == "" {
		return nil, nil
	}

	queryVec, err := ix.embedder.Embed(ctx, query)
	if err != nil {
		return nil, ai.Unavailable(fmt.Errorf("embedding query: %w", err))
	}

	ix.mu.RLock()
	hits := make([]Hit, 0, len(ix.entries))
	for _, e := range ix.entries {
		hits = append(hits, Hit{ID: e.id, Score: cosine(queryVec, e.vector)})
	}
	ix.mu.RUnlock()

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if len(hits) > k {
		hits = hits[:k]
	}

	return hits, nil
}

// Len reports the number of indexed entries.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.entries)
}
