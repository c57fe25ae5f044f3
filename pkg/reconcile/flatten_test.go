package reconcile_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/complykit/screendiff/pkg/reconcile"
	"github.com/complykit/screendiff/pkg/screening"
)

func reconcileFixture(t *testing.T, bySource map[screening.SourceID][]screening.MatchRecord) *reconcile.Result {
	t.Helper()
	r := mustReconciler(t)
	result, err := r.Reconcile([]screening.SourceID{screening.SourceV2, screening.SourceV4}, bySource)
	require.NoError(t, err)
	return result
}

func TestFlattenSingleRow(t *testing.T) {
	result := reconcileFixture(t, map[screening.SourceID][]screening.MatchRecord{
		screening.SourceV2: records("1", "2"),
		screening.SourceV4: records("2", "3"),
	})

	rows := reconcile.Flatten("Alice", result, 32000)
	require.Len(t, rows, 1)

	row := rows[0]
	assert.Equal(t, "Alice", row.Name)
	assert.False(t, row.Continuation)
	assert.Equal(t, "1 - Entity 1\n", row.Exclusive[screening.SourceV2])
	assert.Equal(t, "3 - Entity 3\n", row.Exclusive[screening.SourceV4])
	assert.Equal(t, "2 - Entity 2\n", row.Common)
}

func TestFlattenChunksSpillIntoContinuationRows(t *testing.T) {
	result := reconcileFixture(t, map[screening.SourceID][]screening.MatchRecord{
		screening.SourceV2: records("10", "11", "12", "13"),
		screening.SourceV4: {},
	})

	// Each line is "10 - Entity 10\n" = 15 chars; a 40-char cell fits
	// two lines per chunk.
	rows := reconcile.Flatten("Bob", result, 40)
	require.Len(t, rows, 2)

	assert.Equal(t, "Bob", rows[0].Name)
	assert.False(t, rows[0].Continuation)
	assert.Empty(t, rows[1].Name)
	assert.True(t, rows[1].Continuation)

	for _, row := range rows {
		assert.NotEmpty(t, row.Exclusive[screening.SourceV2])
		assert.Empty(t, row.Exclusive[screening.SourceV4])
		assert.Empty(t, row.Common)
	}
}

func TestFlattenChunkIntegrity(t *testing.T) {
	ids := []string{"a1", "a2", "a3", "a4", "a5", "a6", "a7"}
	result := reconcileFixture(t, map[screening.SourceID][]screening.MatchRecord{
		screening.SourceV2: records(ids...),
		screening.SourceV4: {},
	})

	maxLen := 30
	rows := reconcile.Flatten("Carol", result, maxLen)

	// Concatenating all chunks reconstructs the original lines in order.
	var rebuilt strings.Builder
	for _, row := range rows {
		chunk := row.Exclusive[screening.SourceV2]
		if chunk != "" {
			assert.LessOrEqual(t, len(chunk), maxLen, "chunk exceeds cell limit")
		}
		rebuilt.WriteString(chunk)
	}

	var want strings.Builder
	for _, id := range ids {
		want.WriteString(reconcile.RecordLine(id, "Entity "+id))
	}
	assert.Equal(t, want.String(), rebuilt.String())

	// Boundaries fall only between records.
	for _, row := range rows {
		chunk := row.Exclusive[screening.SourceV2]
		if chunk != "" {
			assert.True(t, strings.HasSuffix(chunk, "\n"), "chunk %q ends mid-record", chunk)
		}
	}
}

func TestFlattenOversizeRecordEmittedWhole(t *testing.T) {
	longName := strings.Repeat("x", 100)
	result := reconcileFixture(t, map[screening.SourceID][]screening.MatchRecord{
		screening.SourceV2: {{EntityID: "1", EntityName: longName}},
		screening.SourceV4: {},
	})

	rows := reconcile.Flatten("Dan", result, 10)
	require.Len(t, rows, 1)

	// The ceiling is advisory: the record comes through untruncated.
	assert.Equal(t, reconcile.RecordLine("1", longName), rows[0].Exclusive[screening.SourceV2])
}

func TestFlattenEmptyResult(t *testing.T) {
	result := reconcileFixture(t, map[screening.SourceID][]screening.MatchRecord{
		screening.SourceV2: {},
		screening.SourceV4: {},
	})

	rows := reconcile.Flatten("Eve", result, 32000)
	require.Len(t, rows, 1)
	assert.Equal(t, "Eve", rows[0].Name)
	assert.Empty(t, rows[0].Common)
	assert.Empty(t, rows[0].Exclusive[screening.SourceV2])
	assert.Empty(t, rows[0].Exclusive[screening.SourceV4])
}
