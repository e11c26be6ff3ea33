package domain

import (
	"errors"
	"time"
)

// ErrSlotEmpty is returned when nothing has been uploaded yet
var ErrSlotEmpty = errors.New("no uploaded file")

// StoredFile describes the file currently held in the upload slot
type StoredFile struct {
	ID           string    `json:"id"`
	OriginalName string    `json:"original_name"`
	StoredPath   string    `json:"stored_path"`
	Size         int64     `json:"size"`
	Hash         string    `json:"hash"`
	ContentType  string    `json:"content_type"`
	StoredAt     time.Time `json:"stored_at"`
}
