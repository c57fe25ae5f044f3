// Package screendiff screens names against multiple sanctions-screening
// APIs and reconciles the matches each source returns. The Screener owns
// the per-name orchestration: submit the name to every configured
// source, collect normalized match lists, and hand them to the
// reconciliation engine. Names are processed strictly in input order;
// within one name the source calls may fan out concurrently.
package screendiff

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/complykit/screendiff/internal/config"
	"github.com/complykit/screendiff/internal/sources"
	"github.com/complykit/screendiff/internal/sources/screeners"
	"github.com/complykit/screendiff/internal/spreadsheet"
	"github.com/complykit/screendiff/pkg/constants"
	"github.com/complykit/screendiff/pkg/errors"
	"github.com/complykit/screendiff/pkg/logging"
	"github.com/complykit/screendiff/pkg/reconcile"
	"github.com/complykit/screendiff/pkg/screening"
)

// Screener runs screening queries against a fixed set of sources and
// reconciles their results.
type Screener struct {
	registry   *sources.Sources
	reconciler reconcile.Reconciler
	logger     *zerolog.Logger
	concurrent bool
}

// New creates a Screener from options. With no options it loads the
// embedded source configuration and screens against every source in it.
func New(opts ...Option) (*Screener, error) {
	c := &options{
		concurrent: true,
		policy:     reconcile.PolicyAnyTwo,
		logger:     logging.Default(),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	registry := c.registry
	if registry == nil {
		cfg := c.config
		if cfg == nil {
			var err error
			cfg, err = config.Load(c.configPath)
			if err != nil {
				return nil, err
			}
		}
		var err error
		registry, err = screeners.Build(cfg, c.sourceIDs)
		if err != nil {
			return nil, err
		}
	}

	if registry.Len() < constants.MinSources {
		return nil, errors.ErrInsufficientSources
	}

	reconciler, err := reconcile.New(reconcile.WithPolicy(c.policy))
	if err != nil {
		return nil, err
	}

	return &Screener{
		registry:   registry,
		reconciler: reconciler,
		logger:     c.logger,
		concurrent: c.concurrent,
	}, nil
}

// SourceIDs returns the screener's source ordering. The first source is
// the primary for reconciliation.
func (s *Screener) SourceIDs() []screening.SourceID {
	return s.registry.IDs()
}

// Screen submits one name to every source and collects the outcome. A
// source call that fails contributes an empty match list and a recorded
// error; Screen itself fails only when the context is done.
func (s *Screener) Screen(ctx context.Context, name string) (*screening.QueryResult, error) {
	order := s.registry.IDs()
	result := &screening.QueryResult{
		Name:      name,
		Order:     order,
		BySource:  make(map[screening.SourceID][]screening.MatchRecord, len(order)),
		Durations: make(map[screening.SourceID]time.Duration, len(order)),
		Errors:    make(map[screening.SourceID]string),
	}

	type outcome struct {
		id      screening.SourceID
		records []screening.MatchRecord
		elapsed time.Duration
		err     error
	}
	outcomes := make([]outcome, len(order))

	screenOne := func(i int, src sources.Source) {
		start := time.Now()
		qctx, cancel := context.WithTimeout(ctx, constants.QueryTimeout)
		defer cancel()

		records, err := src.Screen(qctx, name)
		outcomes[i] = outcome{
			id:      src.ID(),
			records: records,
			elapsed: time.Since(start),
			err:     err,
		}
	}

	if s.concurrent {
		g, _ := errgroup.WithContext(ctx)
		for i, src := range s.registry.List() {
			g.Go(func() error {
				screenOne(i, src)
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for i, src := range s.registry.List() {
			screenOne(i, src)
		}
	}

	for _, o := range outcomes {
		result.Durations[o.id] = o.elapsed
		if o.err != nil {
			s.logger.Warn().
				Err(o.err).
				Str("source", o.id.String()).
				Str("query", name).
				Msg("source call failed")
			result.Errors[o.id] = o.err.Error()
			result.BySource[o.id] = []screening.MatchRecord{}
			continue
		}
		result.BySource[o.id] = o.records
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Run screens every name in input order and returns the accumulated
// result set. One name's calls complete fully before the next name is
// submitted.
func (s *Screener) Run(ctx context.Context, names []string) (*screening.ResultSet, error) {
	set := screening.NewResultSet()
	for i, name := range names {
		q, err := s.Screen(ctx, name)
		if err != nil {
			return set, err
		}
		set.Append(q)

		s.logger.Debug().
			Int("processed", i+1).
			Int("total", len(names)).
			Str("query", name).
			Msg("name screened")
	}
	return set, nil
}

// Reconcile computes the cross-source comparison for one query result.
func (s *Screener) Reconcile(q *screening.QueryResult) (*reconcile.Result, error) {
	return s.reconciler.Reconcile(q.Order, q.BySource)
}

// Entries pairs every result in the set with its reconciliation, ready
// for export.
func (s *Screener) Entries(set *screening.ResultSet) ([]spreadsheet.Entry, error) {
	results := set.List()
	entries := make([]spreadsheet.Entry, 0, len(results))
	for _, q := range results {
		rec, err := s.Reconcile(q)
		if err != nil {
			return nil, err
		}
		entries = append(entries, spreadsheet.Entry{Query: q, Reconciliation: rec})
	}
	return entries, nil
}
