// Package testkit builds spreadsheet fixtures for tests.
package testkit

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// Sheet is one worksheet of a generated workbook. The first row is the header.
type Sheet struct {
	Name string
	Rows [][]any
}

// Rows builds a sheet named Sheet1 from the given rows
func Rows(rows ...[]any) Sheet {
	return Sheet{Name: "Sheet1", Rows: rows}
}

// WorkbookBytes renders the sheets, in order, as an .xlsx document.
// A nil cell is left unwritten.
func WorkbookBytes(t testing.TB, sheets ...Sheet) []byte {
	t.Helper()
	require.NotEmpty(t, sheets, "workbook needs at least one sheet")

	f := excelize.NewFile()
	defer f.Close()

	for i, sheet := range sheets {
		if i == 0 {
			if sheet.Name != "Sheet1" {
				require.NoError(t, f.SetSheetName("Sheet1", sheet.Name))
			}
		} else {
			_, err := f.NewSheet(sheet.Name)
			require.NoError(t, err)
		}

		for r, row := range sheet.Rows {
			for c, value := range row {
				if value == nil {
					continue
				}
				cell, err := excelize.CoordinatesToCellName(c+1, r+1)
				require.NoError(t, err)
				require.NoError(t, f.SetCellValue(sheet.Name, cell, value))
			}
		}
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

// WriteWorkbook writes the sheets to path as an .xlsx file
func WriteWorkbook(t testing.TB, path string, sheets ...Sheet) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, WorkbookBytes(t, sheets...), 0644))
}
