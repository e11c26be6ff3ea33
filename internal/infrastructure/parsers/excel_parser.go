package parsers

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/alejandroruanova/idlookup-service/internal/core/domain"
	"github.com/xuri/excelize/v2"
)

// ExcelParser parses the first sheet of Excel workbooks (.xlsx, .xlsm)
type ExcelParser struct {
	config *ParserConfig
}

// NewExcelParser creates a new Excel parser
func NewExcelParser(config *ParserConfig) *ExcelParser {
	if config == nil {
		config = DefaultParserConfig()
	}
	return &ExcelParser{
		config: config,
	}
}

// Parse reads and parses an Excel file from disk
func (p *ExcelParser) Parse(ctx context.Context, filePath string) (*ParseResult, error) {
	stat, err := os.Stat(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	if err := p.config.checkFileSize(stat.Size()); err != nil {
		return nil, err
	}

	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	return p.parseExcelFile(ctx, f)
}

// ParseStream reads and parses Excel data from an io.Reader
func (p *ExcelParser) ParseStream(ctx context.Context, reader io.Reader) (*ParseResult, error) {
	f, err := excelize.OpenReader(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read Excel stream: %w", err)
	}
	defer f.Close()

	return p.parseExcelFile(ctx, f)
}

// parseExcelFile extracts data from the first sheet of an Excel file
func (p *ExcelParser) parseExcelFile(ctx context.Context, f *excelize.File) (*ParseResult, error) {
	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, fmt.Errorf("no sheets found in Excel file")
	}

	// Formatted text is what a user sees; raw values keep numbers exact
	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to get rows from sheet %s: %w", sheetName, err)
	}
	rawRows, err := f.GetRows(sheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to get raw rows from sheet %s: %w", sheetName, err)
	}

	// The table starts at the first non-empty row and column, not at A1
	top, left := usedOrigin(rows, rawRows)
	if top < 0 {
		return &ParseResult{
			Table:  domain.NewTable([]string{}),
			Format: "XLSX",
		}, nil
	}

	width := 0
	for _, row := range rows[top:] {
		width = max(width, len(row)-left)
	}

	rawHeader := make([]string, width)
	if left < len(rows[top]) {
		copy(rawHeader, rows[top][left:])
	}
	if p.config.TrimWhitespace {
		for i := range rawHeader {
			rawHeader[i] = strings.TrimSpace(rawHeader[i])
		}
	}
	header := uniqueHeaders(rawHeader)

	table := domain.NewTable(header)
	totalRows := 0
	skippedRows := 0

	// Process data rows (skip header)
	for rowIdx := top + 1; rowIdx < len(rows); rowIdx++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		totalRows++

		var rawRow []string
		if rowIdx < len(rawRows) {
			rawRow = rawRows[rowIdx]
		}

		row := domain.NewRow()
		for col, colName := range header {
			value, err := p.cellValue(f, sheetName, left+col, rowIdx, rows[rowIdx], rawRow)
			if err != nil {
				return nil, err
			}
			row.Set(colName, value)
		}

		if p.config.SkipEmptyRows && row.IsBlank() {
			skippedRows++
			continue
		}

		table.Append(row)
	}

	return &ParseResult{
		Table:       table,
		TotalRows:   totalRows,
		SkippedRows: skippedRows,
		Format:      "XLSX",
	}, nil
}

// usedOrigin returns the zero-based index of the first row holding any value
// and of the leftmost column holding a value in any row. top is -1 when the
// sheet is empty.
func usedOrigin(rows, rawRows [][]string) (top, left int) {
	top, left = -1, -1
	for r, row := range rows {
		var raw []string
		if r < len(rawRows) {
			raw = rawRows[r]
		}
		for c := range max(len(row), len(raw)) {
			if (c < len(row) && row[c] != "") || (c < len(raw) && raw[c] != "") {
				if top < 0 {
					top = r
				}
				if left < 0 || c < left {
					left = c
				}
				break
			}
		}
	}
	if top < 0 {
		return -1, 0
	}
	return top, left
}

// cellValue returns nil for empty cells, float64 for numeric cells, bool for
// boolean cells and the formatted text for everything else.
func (p *ExcelParser) cellValue(f *excelize.File, sheet string, col, rowIdx int, formatted, raw []string) (any, error) {
	var text, rawText string
	if col < len(formatted) {
		text = formatted[col]
	}
	if col < len(raw) {
		rawText = raw[col]
	}
	if text == "" && rawText == "" {
		return nil, nil
	}

	cell, err := excelize.CoordinatesToCellName(col+1, rowIdx+1)
	if err != nil {
		return nil, fmt.Errorf("invalid cell coordinates: %w", err)
	}
	cellType, err := f.GetCellType(sheet, cell)
	if err != nil {
		return nil, fmt.Errorf("failed to read type of cell %s: %w", cell, err)
	}

	switch cellType {
	case excelize.CellTypeUnset, excelize.CellTypeNumber:
		// Numbers are stored without a type attribute
		if n, err := strconv.ParseFloat(rawText, 64); err == nil {
			return n, nil
		}
	case excelize.CellTypeBool:
		return rawText == "1" || strings.EqualFold(rawText, "true"), nil
	}

	if p.config.TrimWhitespace {
		text = strings.TrimSpace(text)
	}
	return text, nil
}

// SupportedFormats returns the file extensions this parser supports
func (p *ExcelParser) SupportedFormats() []string {
	return []string{".xlsx", ".xlsm"}
}
