package spreadsheet

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/complykit/screendiff/pkg/reconcile"
	"github.com/complykit/screendiff/pkg/screening"
)

func writeInputWorkbook(t *testing.T, names ...string) string {
	t.Helper()
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetCellValue(sheet, "A1", "Name"))
	for i, name := range names {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		require.NoError(t, err)
		require.NoError(t, f.SetCellValue(sheet, cell, name))
	}
	path := filepath.Join(t.TempDir(), "input.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())
	return path
}

func TestReadNamesSkipsHeaderAndBlanks(t *testing.T) {
	path := writeInputWorkbook(t, "Alice Doe", "", "  Bob   Smith ", "Chen Wei")

	names, err := ReadNames(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Alice Doe", "Bob Smith", "Chen Wei"}, names)
}

func TestReadNamesRejectsEmptyWorkbook(t *testing.T) {
	path := writeInputWorkbook(t)

	_, err := ReadNames(path)
	assert.Error(t, err)
}

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "Bob Smith", NormalizeName("  Bob \t Smith\n"))
	assert.Equal(t, "", NormalizeName("   "))
	// Decomposed input comes out NFC.
	assert.Equal(t, "H\u00e9ctor", NormalizeName("He\u0301ctor"))
}

func testEntry(t *testing.T) Entry {
	t.Helper()
	order := []screening.SourceID{screening.SourceV2, screening.SourceV4}
	bySource := map[screening.SourceID][]screening.MatchRecord{
		screening.SourceV2: {
			{Source: screening.SourceV2, EntityID: "1", EntityName: "DOE, Alice", Rank: 1},
			{Source: screening.SourceV2, EntityID: "2", EntityName: "DOE, Alicia", Rank: 2},
		},
		screening.SourceV4: {
			{Source: screening.SourceV4, EntityID: "2", EntityName: "DOE, Alicia", Rank: 1},
		},
	}

	r, err := reconcile.New()
	require.NoError(t, err)
	rec, err := r.Reconcile(order, bySource)
	require.NoError(t, err)

	return Entry{
		Query: &screening.QueryResult{
			Name:     "Alice Doe",
			Order:    order,
			BySource: bySource,
			Durations: map[screening.SourceID]time.Duration{
				screening.SourceV2: 120 * time.Millisecond,
				screening.SourceV4: 340 * time.Millisecond,
			},
		},
		Reconciliation: rec,
	}
}

func TestWriteAllResultsSheet(t *testing.T) {
	entry := testEntry(t)
	path := filepath.Join(t.TempDir(), "out.xlsx")

	require.NoError(t, NewWriter().Write(path, []Entry{entry}, []View{ViewAll}))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows("All Results")
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(rows), 2)

	header := rows[0]
	assert.Equal(t, "Name", header[0])
	assert.Contains(t, header, "v2 matches")
	assert.Contains(t, header, "v4 exclusive")
	assert.Contains(t, header, "Common")

	data := rows[1]
	assert.Equal(t, "Alice Doe", data[0])
	// v2 raw matches carry both records, exclusives only id 1, common id 2.
	assert.Contains(t, data[1], "1 - DOE, Alice")
	assert.Contains(t, data[1], "2 - DOE, Alicia")
	assert.Contains(t, data[3], "1 - DOE, Alice")
	assert.NotContains(t, data[3], "2 -")
	assert.Contains(t, data[5], "2 - DOE, Alicia")
}

func TestWriteMultipleViews(t *testing.T) {
	entry := testEntry(t)
	path := filepath.Join(t.TempDir(), "out.xlsx")

	views := []View{ViewAll, ViewExclusive, ViewCommon}
	require.NoError(t, NewWriter().Write(path, []Entry{entry}, views))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	assert.ElementsMatch(t, []string{"All Results", "Exclusive Only", "Common Only"}, f.GetSheetList())

	rows, err := f.GetRows("Common Only")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Contains(t, rows[1][1], "2 - DOE, Alicia")
	assert.Contains(t, rows[1][2], "2: v2=2 v4=1")
}

func TestWriteChunkedEntrySpansContinuationRows(t *testing.T) {
	entry := testEntry(t)
	path := filepath.Join(t.TempDir(), "out.xlsx")

	w := &Writer{maxCellLength: 20}
	require.NoError(t, w.Write(path, []Entry{entry}, []View{ViewAll}))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows("All Results")
	require.NoError(t, err)
	// Two v2 raw records at ~20 chars each cannot share a 20-char cell.
	require.GreaterOrEqual(t, len(rows), 3)
	assert.Equal(t, "Alice Doe", rows[1][0])
	assert.Equal(t, continuationMarker, rows[2][0])
}

func TestParseViews(t *testing.T) {
	views, err := ParseViews(nil)
	require.NoError(t, err)
	assert.Equal(t, []View{ViewAll}, views)

	views, err = ParseViews([]string{"All", " common "})
	require.NoError(t, err)
	assert.Equal(t, []View{ViewAll, ViewCommon}, views)

	_, err = ParseViews([]string{"bogus"})
	assert.Error(t, err)
}
