package services

import (
	"sync"
	"time"

	"github.com/tbourn/choco-sommelier/internal/catalog"
	"github.com/tbourn/choco-sommelier/internal/search"
	"github.com/tbourn/choco-sommelier/internal/sommelier"
)

// KnowledgeIndex is the engine's Retriever. It keeps a search index over the
// free-text knowledge passages of the most recent catalog snapshot.
type KnowledgeIndex struct {
	opts []search.Option

	mu       sync.RWMutex
	loadedAt time.Time
	r        search.Retriever
}

// NewKnowledgeIndex returns an empty index. Passages are folded with the
// engine's normalizer so Turkish and ASCII spellings match.
func NewKnowledgeIndex(opts ...search.Option) *KnowledgeIndex {
	base := []search.Option{search.WithFold(sommelier.Normalize), search.WithMinRunes(8)}
	return &KnowledgeIndex{opts: append(base, opts...)}
}

// Refresh rebuilds the index when snap is newer than the indexed one.
func (k *KnowledgeIndex) Refresh(snap catalog.Snapshot) {
	k.mu.RLock()
	same := k.r.Index != nil && snap.LoadedAt.Equal(k.loadedAt)
	k.mu.RUnlock()
	if same {
		return
	}
	idx := search.New(snap.Passages(), k.opts...)
	k.mu.Lock()
	k.r = search.Retriever{Index: idx}
	k.loadedAt = snap.LoadedAt
	k.mu.Unlock()
}

// Best implements sommelier.Retriever.
func (k *KnowledgeIndex) Best(query string) (string, float64, bool) {
	k.mu.RLock()
	r := k.r
	k.mu.RUnlock()
	return r.Best(query)
}
