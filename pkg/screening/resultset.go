package screening

import "sync"

// ResultSet accumulates the QueryResults of one screening run. It is
// append-only: results are added in input order and the set is replaced,
// not mutated, when a new run starts. Safe for concurrent use so a server
// can read while a run appends.
type ResultSet struct {
	mu      sync.RWMutex
	results []*QueryResult
}

// NewResultSet creates an empty result set.
func NewResultSet() *ResultSet {
	return &ResultSet{}
}

// Append adds a query result to the set.
func (s *ResultSet) Append(r *QueryResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, r)
}

// Len returns the number of results in the set.
func (s *ResultSet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.results)
}

// List returns a snapshot of the results in append order.
func (s *ResultSet) List() []*QueryResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*QueryResult, len(s.results))
	copy(out, s.results)
	return out
}
