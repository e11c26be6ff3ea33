package lookup

import (
	"context"
	"io"

	"github.com/alejandroruanova/idlookup-service/internal/core/domain"
)

// SlotReader gives read access to the uploaded file
type SlotReader interface {
	// Open returns the current file, or an error wrapping domain.ErrSlotEmpty
	Open(ctx context.Context) (io.ReadCloser, error)
	// Name is the slot file name, used to pick a parser
	Name() string
	// DisplayPath is the slot location as shown to users
	DisplayPath() string
}

// TableReader turns a spreadsheet stream into a table
type TableReader interface {
	ReadTable(ctx context.Context, name string, r io.Reader) (*domain.Table, error)
}

// Result holds the outcome of a lookup
type Result struct {
	IDKey     string
	KeyRule   string
	Columns   []string
	Rows      []*domain.Row
	TotalRows int
}

// IsEmpty reports whether the spreadsheet had no data rows
func (r *Result) IsEmpty() bool {
	return r.TotalRows == 0
}
