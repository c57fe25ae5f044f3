// Package reconcile computes the cross-source comparison at the heart of
// screendiff: given the per-source match lists for one screened name, it
// partitions the matched entity IDs into the set exclusive to each source
// and the set common to multiple sources, carrying each entity's rank in
// every source that returned it.
//
// The engine is a pure function of its input. It performs no I/O, keeps no
// state between invocations, and produces byte-identical output for
// identical input, which the export path relies on.
package reconcile

import (
	"fmt"
	"slices"
	"strings"

	"github.com/complykit/screendiff/pkg/constants"
	"github.com/complykit/screendiff/pkg/errors"
	"github.com/complykit/screendiff/pkg/screening"
)

// Policy selects how "common" membership is decided when three sources
// are compared. Upstream revisions of this tool disagreed on the
// semantics, so it is configurable rather than guessed.
type Policy string

const (
	// PolicyAnyTwo treats an entity as common when it appears in at
	// least two of the compared sources. This is the default and the
	// only policy under which exclusive and common sets partition the
	// full id universe for three sources.
	PolicyAnyTwo Policy = "any-two"

	// PolicyPrimaryPair treats an entity as common only when it appears
	// in both of the first two sources; a third source participates in
	// exclusivity checks only. An id present in two sources that do not
	// include both primaries is neither exclusive nor common and is
	// omitted from the reconciled view.
	PolicyPrimaryPair Policy = "primary-pair"
)

// String returns the string representation of a policy.
func (p Policy) String() string {
	return string(p)
}

// ParsePolicy converts a string to a Policy with validation.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(strings.ToLower(s)) {
	case PolicyAnyTwo, "":
		return PolicyAnyTwo, nil
	case PolicyPrimaryPair:
		return PolicyPrimaryPair, nil
	default:
		return "", errors.NewValidationError("policy", s,
			fmt.Sprintf("must be %q or %q", PolicyAnyTwo, PolicyPrimaryPair))
	}
}

// Reconciler computes reconciliation results for per-source match lists.
type Reconciler interface {
	// Reconcile compares the match lists of the sources named in order.
	// The first source in order is the primary source: common entries
	// are sorted by their rank within it. A source missing from
	// bySource is treated as having returned no matches.
	Reconcile(order []screening.SourceID, bySource map[screening.SourceID][]screening.MatchRecord) (*Result, error)
}

// reconciler is the default implementation of Reconciler.
type reconciler struct {
	policy Policy
}

// Option configures a Reconciler.
type Option func(*reconciler) error

// New creates a new Reconciler with options.
func New(opts ...Option) (Reconciler, error) {
	r := &reconciler{
		policy: PolicyAnyTwo,
	}

	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// WithPolicy sets the commonality policy.
func WithPolicy(policy Policy) Option {
	return func(r *reconciler) error {
		if _, err := ParsePolicy(policy.String()); err != nil {
			return err
		}
		if policy != "" {
			r.policy = policy
		}
		return nil
	}
}

// Reconcile implements Reconciler.
func (r *reconciler) Reconcile(order []screening.SourceID, bySource map[screening.SourceID][]screening.MatchRecord) (*Result, error) {
	if len(order) < constants.MinSources {
		return nil, fmt.Errorf("%w: got %d, need at least %d", errors.ErrInsufficientSources, len(order), constants.MinSources)
	}
	if len(order) > constants.MaxSources {
		return nil, errors.NewValidationError("order", order,
			fmt.Sprintf("at most %d sources supported", constants.MaxSources))
	}
	seen := make(map[screening.SourceID]bool, len(order))
	for _, id := range order {
		if seen[id] {
			return nil, errors.NewValidationError("order", id, "duplicate source")
		}
		seen[id] = true
	}

	// First occurrence per (source, entity id). Rank comes from the
	// record's position in the source's returned order; repeats after
	// the first are ignored here but stay visible in raw views. Records
	// without an id never participate in cross-source identity.
	firstSeen := make(map[screening.SourceID]map[string]screening.MatchRecord, len(order))
	for _, sid := range order {
		byID := make(map[string]screening.MatchRecord)
		for i, rec := range bySource[sid] {
			if !rec.Identified() {
				continue
			}
			if _, ok := byID[rec.EntityID]; ok {
				continue
			}
			rec.Source = sid
			rec.Rank = i + 1
			byID[rec.EntityID] = rec
		}
		firstSeen[sid] = byID
	}

	holders := func(entityID string) []screening.SourceID {
		var hs []screening.SourceID
		for _, sid := range order {
			if _, ok := firstSeen[sid][entityID]; ok {
				hs = append(hs, sid)
			}
		}
		return hs
	}

	result := &Result{
		Policy:      r.policy,
		Order:       slices.Clone(order),
		ExclusiveTo: make(map[screening.SourceID][]screening.MatchRecord, len(order)),
	}

	// Exclusives: walk each source in its own returned order so the
	// output stays rank-ascending without a separate sort.
	for _, sid := range order {
		exclusive := []screening.MatchRecord{}
		emitted := make(map[string]bool)
		for _, raw := range bySource[sid] {
			rec, ok := firstSeen[sid][raw.EntityID]
			if !ok || raw.EntityID == "" || emitted[raw.EntityID] {
				continue
			}
			emitted[raw.EntityID] = true
			if len(holders(raw.EntityID)) == 1 {
				exclusive = append(exclusive, rec)
			}
		}
		result.ExclusiveTo[sid] = exclusive
	}

	// Common entries, per the configured policy.
	primary, secondary := order[0], order[1]
	emitted := make(map[string]bool)
	for _, sid := range order {
		for _, raw := range bySource[sid] {
			id := raw.EntityID
			if id == "" || emitted[id] {
				continue
			}
			emitted[id] = true

			hs := holders(id)
			if len(hs) < 2 {
				continue
			}
			if r.policy == PolicyPrimaryPair {
				if !slices.Contains(hs, primary) || !slices.Contains(hs, secondary) {
					continue
				}
			}

			// Metadata from the first source (in comparison order)
			// that returned the entity.
			lead := firstSeen[hs[0]][id]
			entry := CommonEntry{
				EntityID:     id,
				EntityName:   lead.EntityName,
				Reference:    lead.Reference,
				RankBySource: make(map[screening.SourceID]int, len(hs)),
			}
			for _, h := range hs {
				entry.RankBySource[h] = firstSeen[h][id].Rank
			}
			result.Common = append(result.Common, entry)
		}
	}

	// Order by rank in the primary source; entries the primary never
	// returned sort after those it did, and all ties fall back to the
	// entity id so equal inputs produce identical output.
	slices.SortStableFunc(result.Common, func(a, b CommonEntry) int {
		ra, aok := a.RankBySource[primary]
		rb, bok := b.RankBySource[primary]
		switch {
		case aok && !bok:
			return -1
		case !aok && bok:
			return 1
		case aok && bok && ra != rb:
			return ra - rb
		default:
			return strings.Compare(a.EntityID, b.EntityID)
		}
	})

	return result, nil
}
