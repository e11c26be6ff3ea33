package api

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/alejandroruanova/idlookup-service/internal/core/domain"
	"github.com/alejandroruanova/idlookup-service/internal/core/services/lookup"
	apperrors "github.com/alejandroruanova/idlookup-service/internal/pkg/errors"
)

// Uploader stores an uploaded file in the slot
type Uploader interface {
	Upload(ctx context.Context, originalName string, r io.Reader) (*domain.StoredFile, error)
	DisplayPath() string
}

// Searcher looks rows up by identifier
type Searcher interface {
	Search(ctx context.Context, query string) (*lookup.Result, error)
}

// Handler serves the upload, search and ping endpoints
type Handler struct {
	uploads  Uploader
	searches Searcher
	logger   *slog.Logger
}

// NewHandler creates a new Handler
func NewHandler(uploads Uploader, searches Searcher, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		uploads:  uploads,
		searches: searches,
		logger:   logger,
	}
}

// Upload handles POST /upload with the spreadsheet in the multipart field "file"
func (h *Handler) Upload(c echo.Context) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		h.logger.Debug("upload without file", slog.Any("error", err))
		return apperrors.NoFileUploaded()
	}

	src, err := fileHeader.Open()
	if err != nil {
		return apperrors.StorageError(fmt.Errorf("open multipart file: %w", err))
	}
	defer src.Close()

	if _, err := h.uploads.Upload(c.Request().Context(), fileHeader.Filename, src); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, UploadResponse{
		OK:      true,
		Message: fmt.Sprintf("File uploaded and saved as %s", h.uploads.DisplayPath()),
	})
}

// Search handles GET /search?id=
func (h *Handler) Search(c echo.Context) error {
	id := strings.TrimSpace(c.QueryParam("id"))
	if id == "" {
		return apperrors.MissingQuery()
	}

	result, err := h.searches.Search(c.Request().Context(), id)
	if err != nil {
		return err
	}

	if result.IsEmpty() {
		return c.JSON(http.StatusOK, SearchResponse{
			OK:      true,
			Results: []*domain.Row{},
			Message: emptySpreadsheetMessage,
		})
	}

	rows := result.Rows
	if rows == nil {
		rows = []*domain.Row{}
	}

	return c.JSON(http.StatusOK, SearchResponse{
		OK:      true,
		IDKey:   result.IDKey,
		Results: rows,
	})
}

// Ping handles GET /ping
func (h *Handler) Ping(c echo.Context) error {
	return c.String(http.StatusOK, "pong")
}
