package reconcile

import "github.com/complykit/screendiff/pkg/screening"

// Result is the reconciliation of one query's per-source match lists.
// It is computed fresh from the match lists and never persisted.
type Result struct {
	// Policy is the commonality policy the result was computed under.
	Policy Policy `json:"policy"`

	// Order is the source ordering the comparison ran with. The first
	// entry is the primary source.
	Order []screening.SourceID `json:"order"`

	// ExclusiveTo maps each source to the records present in it and
	// absent, by entity id, from every other compared source. Ordered
	// by ascending rank within the source.
	ExclusiveTo map[screening.SourceID][]screening.MatchRecord `json:"exclusive_to"`

	// Common holds one entry per entity id found in multiple sources,
	// ordered by rank within the primary source.
	Common []CommonEntry `json:"common"`
}

// CommonEntry is an entity returned by more than one source.
type CommonEntry struct {
	EntityID   string `json:"entity_id"`
	EntityName string `json:"entity_name"`
	Reference  string `json:"reference,omitempty"`

	// RankBySource holds the entity's 1-based rank in each source that
	// returned it. Sources that did not return it are absent.
	RankBySource map[screening.SourceID]int `json:"rank_by_source"`
}

// Rank returns the entry's rank in the given source and whether the
// source returned the entity at all.
func (e CommonEntry) Rank(id screening.SourceID) (int, bool) {
	r, ok := e.RankBySource[id]
	return r, ok
}

// Exclusive returns the exclusive records for a source, empty if none.
func (r *Result) Exclusive(id screening.SourceID) []screening.MatchRecord {
	return r.ExclusiveTo[id]
}

// Primary returns the primary source of the comparison.
func (r *Result) Primary() screening.SourceID {
	if len(r.Order) == 0 {
		return ""
	}
	return r.Order[0]
}
