package parsers

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alejandroruanova/idlookup-service/internal/core/domain"
)

// CSVParser parses CSV files
type CSVParser struct {
	config *ParserConfig
}

// NewCSVParser creates a new CSV parser
func NewCSVParser(config *ParserConfig) *CSVParser {
	if config == nil {
		config = DefaultParserConfig()
	}
	return &CSVParser{
		config: config,
	}
}

// Parse reads and parses a CSV file from disk
func (p *CSVParser) Parse(ctx context.Context, filePath string) (*ParseResult, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
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

// ParseStream reads and parses CSV data from an io.Reader
func (p *CSVParser) ParseStream(ctx context.Context, reader io.Reader) (*ParseResult, error) {
	csvReader := csv.NewReader(reader)
	csvReader.TrimLeadingSpace = p.config.TrimWhitespace
	csvReader.FieldsPerRecord = -1 // Allow variable number of fields per record

	// Read header row
	rawHeader, err := csvReader.Read()
	if errors.Is(err, io.EOF) {
		return &ParseResult{
			Table:  domain.NewTable([]string{}),
			Format: "CSV",
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
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

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		record, err := csvReader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		totalRows++
		if err != nil {
			// Skip malformed rows but continue parsing
			skippedRows++
			continue
		}

		row := domain.NewRow()
		for i, col := range header {
			var value any
			if i < len(record) {
				text := record[i]
				if p.config.TrimWhitespace {
					text = strings.TrimSpace(text)
				}
				if text != "" {
					value = text
				}
			}
			row.Set(col, value)
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
		Format:      "CSV",
	}, nil
}

// SupportedFormats returns the file extensions this parser supports
func (p *CSVParser) SupportedFormats() []string {
	return []string{".csv"}
}
