package screendiff

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/complykit/screendiff/internal/sources"
	"github.com/complykit/screendiff/pkg/errors"
	"github.com/complykit/screendiff/pkg/logging"
	"github.com/complykit/screendiff/pkg/reconcile"
	"github.com/complykit/screendiff/pkg/screening"
)

// fakeSource returns canned matches keyed by query name.
type fakeSource struct {
	id      screening.SourceID
	matches map[string][]screening.MatchRecord
	err     error
	delay   time.Duration
	calls   int
}

func (f *fakeSource) ID() screening.SourceID { return f.id }

func (f *fakeSource) Screen(ctx context.Context, name string) ([]screening.MatchRecord, error) {
	f.calls++
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.matches[name], nil
}

func record(sid screening.SourceID, id, name string) screening.MatchRecord {
	return screening.MatchRecord{Source: sid, EntityID: id, EntityName: name}
}

func testRegistry(srcs ...sources.Source) *sources.Sources {
	registry := sources.NewSources()
	for _, src := range srcs {
		registry.Set(src.ID(), src)
	}
	return registry
}

func newTestScreener(t *testing.T, registry *sources.Sources, opts ...Option) *Screener {
	t.Helper()
	opts = append([]Option{
		WithRegistry(registry),
		WithLogger(logging.NewNopLogger()),
	}, opts...)
	s, err := New(opts...)
	require.NoError(t, err)
	return s
}

func TestNewRejectsSingleSource(t *testing.T) {
	registry := testRegistry(&fakeSource{id: screening.SourceV2})

	_, err := New(WithRegistry(registry), WithLogger(logging.NewNopLogger()))
	assert.ErrorIs(t, err, errors.ErrInsufficientSources)
}

func TestNewRejectsUnknownPolicy(t *testing.T) {
	registry := testRegistry(
		&fakeSource{id: screening.SourceV2},
		&fakeSource{id: screening.SourceV4},
	)

	_, err := New(WithRegistry(registry), WithPolicy(reconcile.Policy("bogus")))
	assert.Error(t, err)
	assert.True(t, errors.IsValidationError(err))
}

func TestScreenCollectsAllSources(t *testing.T) {
	v2 := &fakeSource{
		id: screening.SourceV2,
		matches: map[string][]screening.MatchRecord{
			"Alice Doe": {record(screening.SourceV2, "1", "DOE, Alice")},
		},
	}
	v4 := &fakeSource{
		id: screening.SourceV4,
		matches: map[string][]screening.MatchRecord{
			"Alice Doe": {
				record(screening.SourceV4, "1", "DOE, Alice"),
				record(screening.SourceV4, "7", "DOE, Alicia"),
			},
		},
	}
	s := newTestScreener(t, testRegistry(v2, v4))

	q, err := s.Screen(context.Background(), "Alice Doe")
	require.NoError(t, err)

	assert.Equal(t, []screening.SourceID{screening.SourceV2, screening.SourceV4}, q.Order)
	assert.Len(t, q.Matches(screening.SourceV2), 1)
	assert.Len(t, q.Matches(screening.SourceV4), 2)
	assert.Empty(t, q.Errors)
	assert.Contains(t, q.Durations, screening.SourceV2)
	assert.Contains(t, q.Durations, screening.SourceV4)
}

func TestScreenRecordsSourceFailure(t *testing.T) {
	v2 := &fakeSource{
		id: screening.SourceV2,
		matches: map[string][]screening.MatchRecord{
			"Alice Doe": {record(screening.SourceV2, "1", "DOE, Alice")},
		},
	}
	v4 := &fakeSource{id: screening.SourceV4, err: errors.ErrSourceUnavailable}
	s := newTestScreener(t, testRegistry(v2, v4))

	q, err := s.Screen(context.Background(), "Alice Doe")
	require.NoError(t, err)

	// The failed source still shows up, with no matches and an error.
	assert.Len(t, q.Matches(screening.SourceV2), 1)
	assert.Empty(t, q.Matches(screening.SourceV4))
	assert.True(t, q.Failed(screening.SourceV4))
	assert.False(t, q.Failed(screening.SourceV2))
}

func TestScreenHonorsCancelledContext(t *testing.T) {
	v2 := &fakeSource{id: screening.SourceV2}
	v4 := &fakeSource{id: screening.SourceV4}
	s := newTestScreener(t, testRegistry(v2, v4))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Screen(ctx, "Alice Doe")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestScreenSequentialMode(t *testing.T) {
	v2 := &fakeSource{id: screening.SourceV2}
	v4 := &fakeSource{id: screening.SourceV4}
	s := newTestScreener(t, testRegistry(v2, v4), WithConcurrency(false))

	_, err := s.Screen(context.Background(), "Alice Doe")
	require.NoError(t, err)
	assert.Equal(t, 1, v2.calls)
	assert.Equal(t, 1, v4.calls)
}

func TestRunPreservesInputOrder(t *testing.T) {
	v2 := &fakeSource{id: screening.SourceV2}
	v4 := &fakeSource{id: screening.SourceV4}
	s := newTestScreener(t, testRegistry(v2, v4))

	names := []string{"Alice Doe", "Bob Smith", "Chen Wei"}
	set, err := s.Run(context.Background(), names)
	require.NoError(t, err)

	results := set.List()
	require.Len(t, results, 3)
	for i, q := range results {
		assert.Equal(t, names[i], q.Name)
	}
}

func TestEntriesReconcilesEveryResult(t *testing.T) {
	v2 := &fakeSource{
		id: screening.SourceV2,
		matches: map[string][]screening.MatchRecord{
			"Alice Doe": {
				record(screening.SourceV2, "1", "DOE, Alice"),
				record(screening.SourceV2, "2", "DOE, Alicia"),
			},
		},
	}
	v4 := &fakeSource{
		id: screening.SourceV4,
		matches: map[string][]screening.MatchRecord{
			"Alice Doe": {record(screening.SourceV4, "2", "DOE, Alicia")},
		},
	}
	s := newTestScreener(t, testRegistry(v2, v4))

	set, err := s.Run(context.Background(), []string{"Alice Doe"})
	require.NoError(t, err)

	entries, err := s.Entries(set)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	rec := entries[0].Reconciliation
	require.Len(t, rec.Common, 1)
	assert.Equal(t, "2", rec.Common[0].EntityID)
	require.Len(t, rec.ExclusiveTo[screening.SourceV2], 1)
	assert.Equal(t, "1", rec.ExclusiveTo[screening.SourceV2][0].EntityID)
}
