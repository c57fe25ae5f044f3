// Package sources defines the interface screening source clients
// implement and an ordered, thread-safe registry of them. Each client is
// responsible for normalizing its upstream response shape into
// screening.MatchRecord before anything downstream sees it, so the
// reconciliation engine never deals with upstream schema drift.
package sources

import (
	"context"
	"sync"

	"github.com/complykit/screendiff/pkg/screening"
)

// Source is a screening API client for one upstream revision.
type Source interface {
	// ID returns the source's identifier.
	ID() screening.SourceID

	// Screen submits one name and returns the source's matches in the
	// order the source returned them, normalized to MatchRecord.
	Screen(ctx context.Context, name string) ([]screening.MatchRecord, error)
}

// Sources is a thread-safe, order-preserving container of sources. The
// registration order matters: the first source registered is the primary
// source for reconciliation.
type Sources struct {
	mu      sync.RWMutex
	order   []screening.SourceID
	sources map[screening.SourceID]Source
}

// NewSources creates a new Sources instance.
func NewSources() *Sources {
	return &Sources{
		sources: make(map[screening.SourceID]Source),
	}
}

// Get returns a source by ID.
func (s *Sources) Get(id screening.SourceID) (Source, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	src, found := s.sources[id]
	return src, found
}

// Set registers a source, appending it to the order if new.
func (s *Sources) Set(id screening.SourceID, src Source) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.sources[id]; !exists {
		s.order = append(s.order, id)
	}
	s.sources[id] = src
}

// Len returns the number of sources.
func (s *Sources) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sources)
}

// IDs returns the source IDs in registration order.
func (s *Sources) IDs() []screening.SourceID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]screening.SourceID, len(s.order))
	copy(ids, s.order)
	return ids
}

// List returns the sources in registration order.
func (s *Sources) List() []Source {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Source, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.sources[id])
	}
	return out
}
