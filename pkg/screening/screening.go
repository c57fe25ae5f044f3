// Package screening defines the core types shared across the screendiff
// system: source identifiers, normalized match records, and per-query
// results. Source clients normalize their upstream JSON into these shapes
// before any reconciliation runs, so schema drift in an upstream API never
// reaches the comparison logic.
package screening

import (
	"slices"
	"time"
)

// SourceID identifies a screening API source.
type SourceID string

// String returns the string representation of a source ID.
func (id SourceID) String() string {
	return string(id)
}

// Known screening sources, named after the upstream API revisions.
const (
	SourceV2      SourceID = "v2"
	SourceV4      SourceID = "v4"
	SourceUnivius SourceID = "univius"
)

// IDs returns all known source IDs.
func IDs() []SourceID {
	return []SourceID{
		SourceV2,
		SourceV4,
		SourceUnivius,
	}
}

// IsValid returns true if the ID is one of the known sources.
func (id SourceID) IsValid() bool {
	return slices.Contains(IDs(), id)
}

// MatchRecord is one entity returned by a screening source for a query,
// normalized from whatever shape the upstream API uses.
type MatchRecord struct {
	// Source is the ID of the originating API.
	Source SourceID `json:"source"`

	// EntityID is the source's identifier for the sanctioned entity.
	// Empty means the source returned a record it could not identify;
	// such records are shown in raw views but never matched across
	// sources.
	EntityID string `json:"entity_id"`

	// EntityName is the display name of the entity.
	EntityName string `json:"entity_name"`

	// Reference is an optional free-text annotation, typically the
	// sanction list the entity appears on.
	Reference string `json:"reference,omitempty"`

	// Rank is the 1-based position of this record within its source's
	// response ordering. Sources are never re-sorted.
	Rank int `json:"rank"`
}

// Identified returns true if the record carries a usable entity ID.
func (r MatchRecord) Identified() bool {
	return r.EntityID != ""
}

// QueryResult is the outcome of screening one input name against a set of
// sources. It is created once, after all source calls for the name have
// completed or failed, and is not mutated afterwards.
type QueryResult struct {
	// Name is the input string as submitted to the sources.
	Name string `json:"name"`

	// Order is the caller-supplied source ordering. The first entry is
	// the primary source for reconciliation purposes.
	Order []SourceID `json:"order"`

	// BySource maps each source to its matches in returned order. A
	// source whose call failed maps to an empty slice.
	BySource map[SourceID][]MatchRecord `json:"by_source"`

	// Durations holds the elapsed call time per source. Diagnostic
	// only.
	Durations map[SourceID]time.Duration `json:"durations,omitempty"`

	// Errors records per-source call failures, keyed by source.
	Errors map[SourceID]string `json:"errors,omitempty"`
}

// Matches returns the match list for a source, which is nil if the source
// was not queried and empty if its call failed or found nothing.
func (q *QueryResult) Matches(id SourceID) []MatchRecord {
	return q.BySource[id]
}

// Failed returns true if the given source's call failed for this query.
func (q *QueryResult) Failed(id SourceID) bool {
	_, ok := q.Errors[id]
	return ok
}
