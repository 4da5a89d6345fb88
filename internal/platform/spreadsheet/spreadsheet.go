// Package spreadsheet flattens an .xlsx census export into text lines so it
// can go through the same line parser as a pasted dump.
package spreadsheet

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ContentType is the MIME type of an .xlsx workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// preferredSheets are tried, case-insensitively, before falling back to the
// first sheet.
var preferredSheets = []string{"census", "roster"}

// ErrNoSheets is returned for a workbook without worksheets.
var ErrNoSheets = errors.New("spreadsheet: workbook has no sheets")

// IsWorkbook reports whether an upload looks like an .xlsx workbook, by
// content type or file extension.
func IsWorkbook(filename, contentType string) bool {
	if strings.HasPrefix(strings.ToLower(contentType), ContentType) {
		return true
	}
	return strings.EqualFold(filepath.Ext(filename), ".xlsx")
}

// Lines returns one line per non-empty row, cells joined by single spaces.
func Lines(r io.Reader) ([]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("spreadsheet: open workbook: %w", err)
	}
	defer f.Close()

	sheet := pickSheet(f.GetSheetList())
	if sheet == "" {
		return nil, ErrNoSheets
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("spreadsheet: read rows of %q: %w", sheet, err)
	}

	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		var cells []string
		for _, cell := range row {
			if c := strings.Join(strings.Fields(cell), " "); c != "" {
				cells = append(cells, c)
			}
		}
		if len(cells) > 0 {
			lines = append(lines, strings.Join(cells, " "))
		}
	}
	return lines, nil
}

// Text is Lines joined with newlines.
func Text(r io.Reader) (string, error) {
	lines, err := Lines(r)
	if err != nil {
		return "", err
	}
	return strings.Join(lines, "\n"), nil
}

func pickSheet(sheets []string) string {
	for _, want := range preferredSheets {
		for _, s := range sheets {
			if strings.EqualFold(strings.TrimSpace(s), want) {
				return s
			}
		}
	}
	if len(sheets) == 0 {
		return ""
	}
	return sheets[0]
}
