package reconcile

import (
	"fmt"
	"unicode/utf8"

	"github.com/complykit/screendiff/pkg/screening"
)

// ExportRow is one spreadsheet row of a flattened reconciliation result.
// A result whose record lists fit within maxCellLength yields exactly one
// row; longer lists spill into continuation rows.
type ExportRow struct {
	// Name is the screened name. Blank on continuation rows.
	Name string

	// Continuation marks rows after the first for the same result.
	Continuation bool

	// Exclusive holds the chunk of each source's exclusive list that
	// falls on this row. A source whose list is exhausted maps to "".
	Exclusive map[screening.SourceID]string

	// Common holds this row's chunk of the common list.
	Common string
}

// Flatten renders a reconciliation result into export rows. Each record
// becomes the line "{entityId} - {entityName}\n"; consecutive lines are
// packed into chunks of at most maxCellLength characters, never splitting
// a record's line. A single line longer than maxCellLength is emitted
// whole in its own chunk rather than truncated. The result spans as many
// rows as the largest chunk count across its columns.
func Flatten(name string, r *Result, maxCellLength int) []ExportRow {
	exclusiveChunks := make(map[screening.SourceID][]string, len(r.Order))
	rows := 1
	for _, sid := range r.Order {
		chunks := chunkLines(recordLines(r.ExclusiveTo[sid]), maxCellLength)
		exclusiveChunks[sid] = chunks
		if len(chunks) > rows {
			rows = len(chunks)
		}
	}

	commonChunks := chunkLines(commonLines(r.Common), maxCellLength)
	if len(commonChunks) > rows {
		rows = len(commonChunks)
	}

	out := make([]ExportRow, rows)
	for i := range out {
		row := ExportRow{
			Continuation: i > 0,
			Exclusive:    make(map[screening.SourceID]string, len(r.Order)),
		}
		if i == 0 {
			row.Name = name
		}
		for _, sid := range r.Order {
			if i < len(exclusiveChunks[sid]) {
				row.Exclusive[sid] = exclusiveChunks[sid][i]
			} else {
				row.Exclusive[sid] = ""
			}
		}
		if i < len(commonChunks) {
			row.Common = commonChunks[i]
		}
		out[i] = row
	}

	return out
}

// RecordLine renders the single-line form of a match used in export cells.
func RecordLine(entityID, entityName string) string {
	return fmt.Sprintf("%s - %s\n", entityID, entityName)
}

func recordLines(records []screening.MatchRecord) []string {
	lines := make([]string, 0, len(records))
	for _, rec := range records {
		lines = append(lines, RecordLine(rec.EntityID, rec.EntityName))
	}
	return lines
}

func commonLines(entries []CommonEntry) []string {
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, RecordLine(e.EntityID, e.EntityName))
	}
	return lines
}

// ChunkLines greedily packs consecutive lines into chunks of at most max
// characters. Boundaries fall only between lines; a line that alone
// exceeds max still becomes one whole chunk. Exported for writers that
// chunk raw per-source columns with the same guarantees.
func ChunkLines(lines []string, max int) []string {
	return chunkLines(lines, max)
}

// chunkLines implements ChunkLines.
func chunkLines(lines []string, max int) []string {
	var chunks []string
	var cur []byte
	curLen := 0

	for _, line := range lines {
		n := utf8.RuneCountInString(line)
		if curLen > 0 && curLen+n > max {
			chunks = append(chunks, string(cur))
			cur = cur[:0]
			curLen = 0
		}
		cur = append(cur, line...)
		curLen += n
	}
	if curLen > 0 {
		chunks = append(chunks, string(cur))
	}
	return chunks
}
