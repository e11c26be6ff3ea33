package parsers

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/alejandroruanova/idlookup-service/internal/core/domain"
)

// JSONLParser parses newline-delimited JSON files
type JSONLParser struct {
	config *ParserConfig
}

// NewJSONLParser creates a new JSONL parser
func NewJSONLParser(config *ParserConfig) *JSONLParser {
	if config == nil {
		config = DefaultParserConfig()
	}
	return &JSONLParser{
		config: config,
	}
}

// Parse reads and parses a JSONL file from disk
func (p *JSONLParser) Parse(ctx context.Context, filePath string) (*ParseResult, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open JSONL file: %w", err)
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

// ParseStream reads and parses JSONL data from an io.Reader
func (p *JSONLParser) ParseStream(ctx context.Context, reader io.Reader) (*ParseResult, error) {
	scanner := bufio.NewScanner(reader)
	// Set a larger buffer for potentially large JSON lines (max 1MB per line)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	records := make([]*domain.Row, 0)
	totalRows := 0
	skippedRows := 0

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		line := bytes.TrimSpace(scanner.Bytes())
		totalRows++

		if len(line) == 0 {
			skippedRows++
			continue
		}

		row := domain.NewRow()
		if err := json.Unmarshal(line, row); err != nil {
			// Skip malformed JSON lines but continue parsing
			skippedRows++
			continue
		}

		records = append(records, row)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading JSONL stream: %w", err)
	}

	table, skipped := buildTable(records, p.config.SkipEmptyRows)

	return &ParseResult{
		Table:       table,
		TotalRows:   totalRows,
		SkippedRows: skippedRows + skipped,
		Format:      "JSONL",
	}, nil
}

// SupportedFormats returns the file extensions this parser supports
func (p *JSONLParser) SupportedFormats() []string {
	return []string{".jsonl", ".ndjson", ".jsonnl"}
}
