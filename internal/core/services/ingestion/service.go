// Package ingestion stores uploaded spreadsheets in the upload slot.
package ingestion

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/alejandroruanova/idlookup-service/internal/core/domain"
	apperrors "github.com/alejandroruanova/idlookup-service/internal/pkg/errors"
)

// SlotWriter replaces the stored file
type SlotWriter interface {
	Replace(ctx context.Context, fileID string, originalName string, r io.Reader) (*domain.StoredFile, error)
	DisplayPath() string
}

// Locker serialises writers of the slot
type Locker interface {
	Lock(ctx context.Context) (unlock func(), err error)
}

// Service accepts uploads
type Service struct {
	slot   SlotWriter
	locker Locker
	logger *slog.Logger
}

// NewService creates a new ingestion service
func NewService(slot SlotWriter, locker Locker, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		slot:   slot,
		locker: locker,
		logger: logger,
	}
}

// Upload stores the content of r as the new data file, replacing any previous
// one. The original file name and type are not checked; a file that cannot be
// parsed only fails later lookups.
func (s *Service) Upload(ctx context.Context, originalName string, r io.Reader) (*domain.StoredFile, error) {
	if r == nil {
		return nil, apperrors.NoFileUploaded()
	}

	startTime := time.Now()
	fileID := uuid.NewString()

	unlock, err := s.locker.Lock(ctx)
	if err != nil {
		s.logger.Warn("upload rejected, slot is locked",
			slog.String("file_id", fileID),
			slog.Any("error", err))
		return nil, apperrors.LockUnavailable(err).WithDetails("file_id", fileID)
	}
	defer unlock()

	stored, err := s.slot.Replace(ctx, fileID, originalName, r)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		s.logger.Error("failed to store upload",
			slog.String("file_id", fileID),
			slog.String("filename", originalName),
			slog.Any("error", err))
		return nil, apperrors.StorageError(err).
			WithDetails("file_id", fileID).
			WithDetails("filename", originalName)
	}

	s.logger.Info("upload stored",
		slog.String("file_id", fileID),
		slog.String("filename", originalName),
		slog.String("path", s.slot.DisplayPath()),
		slog.Int64("size", stored.Size),
		slog.Duration("duration", time.Since(startTime)))

	return stored, nil
}

// DisplayPath returns where uploads are stored, as shown to users
func (s *Service) DisplayPath() string {
	return s.slot.DisplayPath()
}
