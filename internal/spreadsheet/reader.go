// Package spreadsheet reads input names from and writes comparison
// results to .xlsx workbooks, the format the screening operators work
// in. Cell text is chunked through the reconcile package so no cell
// exceeds the format's text limit.
package spreadsheet

import (
	"strings"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/unicode/norm"

	"github.com/complykit/screendiff/pkg/constants"
	"github.com/complykit/screendiff/pkg/errors"
)

// ReadNames extracts the input names from a workbook: first column of
// the first sheet, header row skipped, blank rows dropped. Names are
// NFC-normalized and inner whitespace collapsed so equivalent spellings
// hit the sources identically.
func ReadNames(path string) ([]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.WrapIO("open", path, err)
	}
	defer func() { _ = f.Close() }()

	return readNames(f, path)
}

// ReadNamesFrom reads names from an already-open workbook, as when the
// server receives an upload.
func ReadNamesFrom(f *excelize.File) ([]string, error) {
	return readNames(f, "")
}

func readNames(f *excelize.File, path string) ([]string, error) {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.NewParseError("xlsx", path, "workbook has no sheets", nil)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, errors.WrapParse("xlsx", path, err)
	}

	var names []string
	for i, row := range rows {
		if i == 0 {
			// Header row.
			continue
		}
		if len(row) == 0 {
			continue
		}
		name := NormalizeName(row[0])
		if name == "" {
			continue
		}
		names = append(names, name)
		if len(names) > constants.MaxNamesPerRun {
			return nil, errors.NewValidationError("names", len(names),
				"too many input names")
		}
	}

	if len(names) == 0 {
		return nil, errors.NewParseError("xlsx", path, "no names found in first column", nil)
	}
	return names, nil
}

// NormalizeName canonicalizes one input name: unicode NFC, trimmed,
// inner whitespace collapsed to single spaces.
func NormalizeName(s string) string {
	s = norm.NFC.String(s)
	return strings.Join(strings.Fields(s), " ")
}
