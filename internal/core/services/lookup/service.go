// Package lookup finds spreadsheet rows by identifier.
package lookup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/alejandroruanova/idlookup-service/internal/core/domain"
	apperrors "github.com/alejandroruanova/idlookup-service/internal/pkg/errors"
)

// Service answers identifier lookups against the uploaded spreadsheet.
// Every call reads the file afresh; nothing is cached between calls.
type Service struct {
	slot   SlotReader
	tables TableReader
	logger *slog.Logger
}

// NewService creates a new lookup service
func NewService(slot SlotReader, tables TableReader, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		slot:   slot,
		tables: tables,
		logger: logger,
	}
}

// Search returns the rows of the first sheet whose identifier cell equals
// query after trimming and case folding. The caller rejects blank queries.
func (s *Service) Search(ctx context.Context, query string) (*Result, error) {
	startTime := time.Now()

	table, err := s.readTable(ctx)
	if err != nil {
		return nil, err
	}

	if table.IsEmpty() {
		s.logger.Info("lookup on empty spreadsheet", slog.String("query", query))
		return &Result{
			Columns: table.Columns,
			Rows:    []*domain.Row{},
		}, nil
	}

	resolution, ok := ResolveIdentifierKey(table.Columns)
	if !ok {
		return nil, apperrors.FileParseError(errors.New("spreadsheet has rows but no header")).
			WithDetails("file", s.slot.DisplayPath())
	}

	rows := table.Filter(MatchIdentifier(resolution.Key, query))

	s.logger.Info("lookup completed",
		slog.String("query", query),
		slog.String("id_key", resolution.Key),
		slog.String("rule", resolution.Rule),
		slog.Int("matches", len(rows)),
		slog.Int("total_rows", table.Len()),
		slog.Duration("duration", time.Since(startTime)))

	return &Result{
		IDKey:     resolution.Key,
		KeyRule:   resolution.Rule,
		Columns:   table.Columns,
		Rows:      rows,
		TotalRows: table.Len(),
	}, nil
}

// MatchIdentifier returns a predicate selecting rows whose key cell equals
// query. Rows without a value under key never match.
func MatchIdentifier(key, query string) func(*domain.Row) bool {
	want := NormalizeIdentifier(query)
	return func(row *domain.Row) bool {
		text, ok := row.Text(key)
		if !ok {
			return false
		}
		return NormalizeIdentifier(text) == want
	}
}

func (s *Service) readTable(ctx context.Context) (*domain.Table, error) {
	file, err := s.slot.Open(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrSlotEmpty) {
			return nil, apperrors.DataFileNotFound(s.slot.DisplayPath())
		}
		return nil, apperrors.FileParseError(err).WithDetails("file", s.slot.DisplayPath())
	}
	defer file.Close()

	table, err := s.tables.ReadTable(ctx, s.slot.Name(), file)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		s.logger.Error("failed to parse uploaded file",
			slog.String("file", s.slot.DisplayPath()),
			slog.Any("error", err))
		return nil, apperrors.FileParseError(fmt.Errorf("parse %s: %w", s.slot.Name(), err)).
			WithDetails("file", s.slot.DisplayPath())
	}

	return table, nil
}
