package api

import "github.com/alejandroruanova/idlookup-service/internal/core/domain"

const emptySpreadsheetMessage = "No rows found in the spreadsheet."

// SearchResponse is the body of a successful /search call. Results is never
// omitted, an empty match yields [].
type SearchResponse struct {
	OK      bool          `json:"ok"`
	IDKey   string        `json:"idKey,omitempty"`
	Results []*domain.Row `json:"results"`
	Message string        `json:"message,omitempty"`
}

// UploadResponse is the body of a successful /upload call
type UploadResponse struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}
