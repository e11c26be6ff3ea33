package parsers

import (
	"context"
	"fmt"
	"io"

	"github.com/alejandroruanova/idlookup-service/internal/core/domain"
)

// emptyHeader names header cells that hold no text
const emptyHeader = "__EMPTY"

// ParseResult contains the parsed table and parsing statistics
type ParseResult struct {
	Table       *domain.Table
	TotalRows   int
	SkippedRows int
	Format      string
}

// FileParser is the interface all parsers must implement
type FileParser interface {
	// Parse reads and parses the file from the given path
	Parse(ctx context.Context, filePath string) (*ParseResult, error)

	// ParseStream reads and parses from an io.Reader
	ParseStream(ctx context.Context, reader io.Reader) (*ParseResult, error)

	// SupportedFormats returns the file extensions this parser supports
	SupportedFormats() []string
}

// ParserConfig holds configuration for all parsers
type ParserConfig struct {
	// SkipEmptyRows determines if rows whose cells are all empty should be skipped
	SkipEmptyRows bool

	// TrimWhitespace determines if header names and string cells should be trimmed
	TrimWhitespace bool

	// MaxFileSize is the maximum file size in bytes (0 = unlimited)
	MaxFileSize int64
}

// DefaultParserConfig returns sensible defaults. Cell text is left as
// stored; the lookup trims identifiers itself.
func DefaultParserConfig() *ParserConfig {
	return &ParserConfig{
		SkipEmptyRows:  true,
		TrimWhitespace: false,
		MaxFileSize:    500 * 1024 * 1024, // 500 MB
	}
}

// uniqueHeaders names blank header cells __EMPTY and suffixes repeated
// names with _1, _2, ... so every column has a distinct key.
func uniqueHeaders(raw []string) []string {
	counts := make(map[string]int, len(raw))
	used := make(map[string]bool, len(raw))
	headers := make([]string, len(raw))

	for i, name := range raw {
		if name == "" {
			name = emptyHeader
		}
		candidate := name
		for used[candidate] {
			counts[name]++
			candidate = fmt.Sprintf("%s_%d", name, counts[name])
		}
		used[candidate] = true
		headers[i] = candidate
	}

	return headers
}

// checkFileSize enforces MaxFileSize for a file of the given size
func (c *ParserConfig) checkFileSize(size int64) error {
	if c.MaxFileSize > 0 && size > c.MaxFileSize {
		return fmt.Errorf("file size %d exceeds maximum %d", size, c.MaxFileSize)
	}
	return nil
}
