package parsers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/alejandroruanova/idlookup-service/internal/core/domain"
)

// JSONParser parses JSON files holding an array of objects or a single object
type JSONParser struct {
	config *ParserConfig
}

// NewJSONParser creates a new JSON parser
func NewJSONParser(config *ParserConfig) *JSONParser {
	if config == nil {
		config = DefaultParserConfig()
	}
	return &JSONParser{
		config: config,
	}
}

// Parse reads and parses a JSON file from disk
func (p *JSONParser) Parse(ctx context.Context, filePath string) (*ParseResult, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open JSON file: %w", err)
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	if err := p.config.checkFileSize(stat.Size()); err != nil {
		return nil, err
	}

	return p.ParseStream(ctx, file)
}

// ParseStream reads and parses JSON data from an io.Reader
func (p *JSONParser) ParseStream(ctx context.Context, reader io.Reader) (*ParseResult, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read JSON: %w", err)
	}

	var records []*domain.Row
	var rawItems []json.RawMessage
	if err := json.Unmarshal(data, &rawItems); err == nil {
		records = make([]*domain.Row, 0, len(rawItems))
		for i, item := range rawItems {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			default:
			}

			row := domain.NewRow()
			if err := json.Unmarshal(item, row); err != nil {
				return nil, fmt.Errorf("failed to decode JSON record %d: %w", i, err)
			}
			records = append(records, row)
		}
	} else {
		// Single object - wrap in array
		row := domain.NewRow()
		if err := json.Unmarshal(data, row); err != nil {
			return nil, fmt.Errorf("failed to decode JSON object: %w", err)
		}
		records = []*domain.Row{row}
	}

	table, skipped := buildTable(records, p.config.SkipEmptyRows)

	return &ParseResult{
		Table:       table,
		TotalRows:   len(records),
		SkippedRows: skipped,
		Format:      "JSON",
	}, nil
}

// SupportedFormats returns the file extensions this parser supports
func (p *JSONParser) SupportedFormats() []string {
	return []string{".json"}
}

// buildTable projects decoded objects onto the union of their keys, in
// order of first appearance, so every row carries the same columns.
func buildTable(records []*domain.Row, skipEmpty bool) (*domain.Table, int) {
	columns := make([]string, 0)
	seen := make(map[string]bool)
	for _, record := range records {
		for _, col := range record.Columns() {
			if !seen[col] {
				seen[col] = true
				columns = append(columns, col)
			}
		}
	}

	table := domain.NewTable(columns)
	skipped := 0
	for _, record := range records {
		row := domain.NewRow()
		for _, col := range columns {
			value, _ := record.Get(col)
			row.Set(col, value)
		}
		if skipEmpty && row.IsBlank() {
			skipped++
			continue
		}
		table.Append(row)
	}

	return table, skipped
}
