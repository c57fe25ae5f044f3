package spreadsheet

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/complykit/screendiff/pkg/constants"
	"github.com/complykit/screendiff/pkg/errors"
	"github.com/complykit/screendiff/pkg/reconcile"
	"github.com/complykit/screendiff/pkg/screening"
)

// continuationMarker fills the name column on spill-over rows.
const continuationMarker = "(cont.)"

// Entry pairs one screened name with its reconciliation.
type Entry struct {
	Query          *screening.QueryResult
	Reconciliation *reconcile.Result
}

// View selects which worksheets a workbook carries.
type View string

const (
	// ViewAll is the full side-by-side sheet: raw matches, exclusives,
	// common, durations.
	ViewAll View = "all"
	// ViewExclusive carries only the per-source exclusive columns.
	ViewExclusive View = "exclusive"
	// ViewCommon carries only the common entries with their ranks.
	ViewCommon View = "common"
)

var sheetNames = map[View]string{
	ViewAll:       "All Results",
	ViewExclusive: "Exclusive Only",
	ViewCommon:    "Common Only",
}

// ParseViews validates a list of view names.
func ParseViews(names []string) ([]View, error) {
	if len(names) == 0 {
		return []View{ViewAll}, nil
	}
	views := make([]View, 0, len(names))
	for _, n := range names {
		v := View(strings.ToLower(strings.TrimSpace(n)))
		if _, ok := sheetNames[v]; !ok {
			return nil, errors.NewValidationError("views", n, "must be all, exclusive, or common")
		}
		views = append(views, v)
	}
	return views, nil
}

// Writer renders comparison entries into an .xlsx workbook.
type Writer struct {
	maxCellLength int
}

// NewWriter creates a writer with the standard cell-size limit.
func NewWriter() *Writer {
	return &Writer{maxCellLength: constants.MaxCellLength}
}

// Write renders the entries into a workbook at path.
func (w *Writer) Write(path string, entries []Entry, views []View) error {
	f, err := w.build(entries, views)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	if err := f.SaveAs(path); err != nil {
		return errors.WrapIO("write", path, err)
	}
	return nil
}

// WriteTo renders the entries into a workbook streamed to out, as for a
// download response.
func (w *Writer) WriteTo(out io.Writer, entries []Entry, views []View) error {
	f, err := w.build(entries, views)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	if err := f.Write(out); err != nil {
		return errors.WrapIO("write", "workbook stream", err)
	}
	return nil
}

func (w *Writer) build(entries []Entry, views []View) (*excelize.File, error) {
	if len(views) == 0 {
		views = []View{ViewAll}
	}

	f := excelize.NewFile()
	for i, view := range views {
		sheet := sheetNames[view]
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
				return nil, errors.WrapIO("create", sheet, err)
			}
		} else if _, err := f.NewSheet(sheet); err != nil {
			return nil, errors.WrapIO("create", sheet, err)
		}

		var err error
		switch view {
		case ViewAll:
			err = w.writeAll(f, sheet, entries)
		case ViewExclusive:
			err = w.writeExclusive(f, sheet, entries)
		case ViewCommon:
			err = w.writeCommon(f, sheet, entries)
		}
		if err != nil {
			return nil, err
		}
	}
	return f, nil
}

// writeAll renders the full comparison sheet. Each entry spans as many
// rows as its longest chunked column.
func (w *Writer) writeAll(f *excelize.File, sheet string, entries []Entry) error {
	if len(entries) == 0 {
		return setRow(f, sheet, 1, []string{"Name"})
	}

	order := entries[0].Reconciliation.Order
	headers := []string{"Name"}
	for _, sid := range order {
		headers = append(headers, sid.String()+" matches")
	}
	for _, sid := range order {
		headers = append(headers, sid.String()+" exclusive")
	}
	headers = append(headers, "Common")
	for _, sid := range order {
		headers = append(headers, sid.String()+" time")
	}
	if err := setRow(f, sheet, 1, headers); err != nil {
		return err
	}

	rowNum := 2
	for _, entry := range entries {
		q, rec := entry.Query, entry.Reconciliation

		rawChunks := make(map[screening.SourceID][]string, len(order))
		total := 0
		for _, sid := range order {
			chunks := reconcile.ChunkLines(rawLines(q, sid), w.maxCellLength)
			rawChunks[sid] = chunks
			if len(chunks) > total {
				total = len(chunks)
			}
		}

		flat := reconcile.Flatten(q.Name, rec, w.maxCellLength)
		if len(flat) > total {
			total = len(flat)
		}

		for i := 0; i < total; i++ {
			cells := make([]string, 0, len(headers))
			if i == 0 {
				cells = append(cells, q.Name)
			} else {
				cells = append(cells, continuationMarker)
			}
			for _, sid := range order {
				cells = append(cells, chunkAt(rawChunks[sid], i))
			}
			for _, sid := range order {
				if i < len(flat) {
					cells = append(cells, flat[i].Exclusive[sid])
				} else {
					cells = append(cells, "")
				}
			}
			if i < len(flat) {
				cells = append(cells, flat[i].Common)
			} else {
				cells = append(cells, "")
			}
			for _, sid := range order {
				if i == 0 {
					cells = append(cells, durationCell(q, sid))
				} else {
					cells = append(cells, "")
				}
			}

			if err := setRow(f, sheet, rowNum, cells); err != nil {
				return err
			}
			rowNum++
		}
	}
	return nil
}

// writeExclusive renders only the per-source exclusive columns.
func (w *Writer) writeExclusive(f *excelize.File, sheet string, entries []Entry) error {
	if len(entries) == 0 {
		return setRow(f, sheet, 1, []string{"Name"})
	}

	order := entries[0].Reconciliation.Order
	headers := []string{"Name"}
	for _, sid := range order {
		headers = append(headers, sid.String()+" exclusive")
	}
	if err := setRow(f, sheet, 1, headers); err != nil {
		return err
	}

	rowNum := 2
	for _, entry := range entries {
		flat := reconcile.Flatten(entry.Query.Name, entry.Reconciliation, w.maxCellLength)
		for i, row := range flat {
			cells := make([]string, 0, len(headers))
			if i == 0 {
				cells = append(cells, row.Name)
			} else {
				cells = append(cells, continuationMarker)
			}
			for _, sid := range order {
				cells = append(cells, row.Exclusive[sid])
			}
			if err := setRow(f, sheet, rowNum, cells); err != nil {
				return err
			}
			rowNum++
		}
	}
	return nil
}

// writeCommon renders the common entries with per-source ranks inline.
func (w *Writer) writeCommon(f *excelize.File, sheet string, entries []Entry) error {
	if err := setRow(f, sheet, 1, []string{"Name", "Common", "Ranks"}); err != nil {
		return err
	}

	rowNum := 2
	for _, entry := range entries {
		rec := entry.Reconciliation

		var matchLines, rankLines []string
		for _, ce := range rec.Common {
			matchLines = append(matchLines, reconcile.RecordLine(ce.EntityID, ce.EntityName))
			rankLines = append(rankLines, rankLine(ce, rec.Order))
		}

		matchChunks := reconcile.ChunkLines(matchLines, w.maxCellLength)
		rankChunks := reconcile.ChunkLines(rankLines, w.maxCellLength)
		total := max(len(matchChunks), len(rankChunks), 1)

		for i := 0; i < total; i++ {
			name := continuationMarker
			if i == 0 {
				name = entry.Query.Name
			}
			cells := []string{name, chunkAt(matchChunks, i), chunkAt(rankChunks, i)}
			if err := setRow(f, sheet, rowNum, cells); err != nil {
				return err
			}
			rowNum++
		}
	}
	return nil
}

// rawLines renders a source's raw matches, including unidentified
// records, which only appear in this view.
func rawLines(q *screening.QueryResult, sid screening.SourceID) []string {
	matches := q.Matches(sid)
	lines := make([]string, 0, len(matches))
	for _, rec := range matches {
		lines = append(lines, reconcile.RecordLine(rec.EntityID, rec.EntityName))
	}
	return lines
}

// rankLine renders one common entry's ranks, e.g. "123: v2=1 v4=3".
func rankLine(ce reconcile.CommonEntry, order []screening.SourceID) string {
	parts := make([]string, 0, len(order))
	for _, sid := range order {
		if rank, ok := ce.Rank(sid); ok {
			parts = append(parts, fmt.Sprintf("%s=%d", sid, rank))
		}
	}
	return fmt.Sprintf("%s: %s\n", ce.EntityID, strings.Join(parts, " "))
}

func durationCell(q *screening.QueryResult, sid screening.SourceID) string {
	if msg, failed := q.Errors[sid]; failed {
		return "failed: " + msg
	}
	if d, ok := q.Durations[sid]; ok {
		return d.Round(time.Millisecond).String()
	}
	return ""
}

func chunkAt(chunks []string, i int) string {
	if i < len(chunks) {
		return chunks[i]
	}
	return ""
}

func setRow(f *excelize.File, sheet string, row int, cells []string) error {
	for col, value := range cells {
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return errors.WrapIO("write", sheet, err)
		}
		if err := f.SetCellValue(sheet, cell, value); err != nil {
			return errors.WrapIO("write", sheet, err)
		}
	}
	return nil
}
