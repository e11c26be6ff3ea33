package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alejandroruanova/idlookup-service/internal/core/domain"
)

const tempSuffix = ".tmp"

// LocalStorage keeps a single uploaded file at a fixed path on disk.
// Each upload replaces the previous one.
type LocalStorage struct {
	dir      string
	fileName string
	logger   *slog.Logger
}

// LocalStorageConfig for local storage
type LocalStorageConfig struct {
	Dir      string // Directory holding the slot file (e.g., "./data")
	FileName string // Slot file name (e.g., "data.xlsx")
}

// NewLocalStorage creates the slot directory if needed
func NewLocalStorage(cfg *LocalStorageConfig, logger *slog.Logger) (*LocalStorage, error) {
	if cfg.FileName == "" || filepath.Base(cfg.FileName) != cfg.FileName {
		return nil, fmt.Errorf("invalid slot file name: %q", cfg.FileName)
	}
	if logger == nil {
		logger = slog.Default()
	}

	if err := os.MkdirAll(cfg.Dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	return &LocalStorage{
		dir:      cfg.Dir,
		fileName: cfg.FileName,
		logger:   logger,
	}, nil
}

// Path returns the slot file location on disk
func (s *LocalStorage) Path() string {
	return filepath.Join(s.dir, s.fileName)
}

// Name returns the slot file name
func (s *LocalStorage) Name() string {
	return s.fileName
}

// DisplayPath returns the slot location relative to the data directory's
// parent, with forward slashes (e.g., "data/data.xlsx")
func (s *LocalStorage) DisplayPath() string {
	return filepath.ToSlash(filepath.Join(filepath.Base(filepath.Clean(s.dir)), s.fileName))
}

// Replace streams reader into a temporary file next to the slot and renames
// it over the slot. Readers see either the old or the new file, never a
// partial one. Callers serialise concurrent Replace calls.
func (s *LocalStorage) Replace(ctx context.Context, fileID string, originalName string, reader io.Reader) (*domain.StoredFile, error) {
	tmp, err := os.CreateTemp(s.dir, "."+s.fileName+".*"+tempSuffix)
	if err != nil {
		return nil, fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpPath := tmp.Name()

	committed := false
	defer func() {
		if !committed {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	// Calculate hash while copying
	hash := sha256.New()
	multiWriter := io.MultiWriter(tmp, hash)

	size, err := io.Copy(multiWriter, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to copy file: %w", err)
	}
	// CreateTemp makes the file owner-only; the slot is world-readable
	if err := tmp.Chmod(0644); err != nil {
		return nil, fmt.Errorf("failed to set file mode: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return nil, fmt.Errorf("failed to flush file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("failed to close file: %w", err)
	}

	// Last chance to abandon the upload before it becomes visible
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := os.Rename(tmpPath, s.Path()); err != nil {
		return nil, fmt.Errorf("failed to replace data file: %w", err)
	}
	committed = true

	fileHash := hex.EncodeToString(hash.Sum(nil))

	metadata := &domain.StoredFile{
		ID:           fileID,
		OriginalName: originalName,
		StoredPath:   s.Path(),
		Size:         size,
		Hash:         fileHash,
		ContentType:  getContentType(s.fileName),
		StoredAt:     time.Now(),
	}

	s.logger.Info("file uploaded successfully",
		slog.String("file_id", fileID),
		slog.String("filename", originalName),
		slog.String("stored_path", metadata.StoredPath),
		slog.Int64("size", size),
		slog.String("hash", fileHash))

	return metadata, nil
}

// Open returns the current slot file. The error wraps domain.ErrSlotEmpty
// when nothing has been stored yet.
func (s *LocalStorage) Open(ctx context.Context) (io.ReadCloser, error) {
	file, err := os.Open(s.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", domain.ErrSlotEmpty, s.DisplayPath())
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	return file, nil
}

// Exists reports whether a file is present in the slot
func (s *LocalStorage) Exists() bool {
	info, err := os.Stat(s.Path())
	return err == nil && info.Mode().IsRegular()
}

// CleanupTempFiles removes temporary files older than the given age, left
// behind by uploads interrupted by a crash.
func (s *LocalStorage) CleanupTempFiles(ctx context.Context, olderThan time.Duration) error {
	cutoffTime := time.Now().Add(-olderThan)

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read data directory: %w", err)
	}

	removed := 0
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if entry.IsDir() || !s.isTempName(entry.Name()) {
			continue
		}

		path := filepath.Join(s.dir, entry.Name())
		info, err := entry.Info()
		if err != nil {
			s.logger.Warn("failed to get file info",
				slog.String("path", path),
				slog.Any("error", err))
			continue
		}

		if info.ModTime().After(cutoffTime) {
			continue
		}
		if err := os.Remove(path); err != nil {
			s.logger.Warn("failed to remove temporary file",
				slog.String("path", path),
				slog.Any("error", err))
			continue
		}
		removed++
		s.logger.Debug("removed stale temporary file",
			slog.String("path", path),
			slog.Time("mod_time", info.ModTime()))
	}

	if removed > 0 {
		s.logger.Info("cleanup completed",
			slog.Int("removed", removed),
			slog.Duration("older_than", olderThan))
	}

	return nil
}

func (s *LocalStorage) isTempName(name string) bool {
	return strings.HasPrefix(name, "."+s.fileName+".") && strings.HasSuffix(name, tempSuffix)
}

// getContentType returns the content type based on file extension
func getContentType(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case ".xlsm":
		return "application/vnd.ms-excel.sheet.macroEnabled.12"
	case ".csv":
		return "text/csv"
	case ".json":
		return "application/json"
	case ".jsonl", ".ndjson":
		return "application/x-ndjson"
	default:
		return "application/octet-stream"
	}
}
