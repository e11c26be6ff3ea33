package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode represents a unique error code for each error type
type ErrorCode string

const (
	// General errors
	ErrCodeInternal   ErrorCode = "INTERNAL_ERROR"
	ErrCodeNotFound   ErrorCode = "NOT_FOUND"
	ErrCodeBadRequest ErrorCode = "BAD_REQUEST"

	// Ingestion errors
	ErrCodeNoFileUploaded ErrorCode = "NO_FILE_UPLOADED"
	ErrCodeStorageError   ErrorCode = "STORAGE_ERROR"

	// Lookup errors
	ErrCodeMissingQuery     ErrorCode = "MISSING_QUERY"
	ErrCodeDataFileNotFound ErrorCode = "DATA_FILE_NOT_FOUND"
	ErrCodeFileParseError   ErrorCode = "FILE_PARSE_ERROR"

	// Lock errors
	ErrCodeLockUnavailable ErrorCode = "LOCK_UNAVAILABLE"
)

// AppError represents a structured application error
type AppError struct {
	Code       ErrorCode              `json:"code"`
	Message    string                 `json:"message"`
	StatusCode int                    `json:"-"`
	Details    map[string]interface{} `json:"details,omitempty"`
	Err        error                  `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s - %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *AppError) Unwrap() error {
	return e.Err
}

// Cause returns the message of the wrapped error, or "" when there is none
func (e *AppError) Cause() string {
	if e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

// WithDetails adds additional context to the error
func (e *AppError) WithDetails(key string, value interface{}) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError
func New(code ErrorCode, message string, statusCode int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
	}
}

// Wrap wraps an existing error with AppError context
func Wrap(err error, code ErrorCode, message string, statusCode int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
		Err:        err,
	}
}

// Common error constructors

func InternalWrap(err error, message string) *AppError {
	return Wrap(err, ErrCodeInternal, message, http.StatusInternalServerError)
}

func NotFound(message string) *AppError {
	return New(ErrCodeNotFound, message, http.StatusNotFound)
}

func BadRequest(message string) *AppError {
	return New(ErrCodeBadRequest, message, http.StatusBadRequest)
}

// Ingestion errors

func NoFileUploaded() *AppError {
	return New(ErrCodeNoFileUploaded, "No file uploaded", http.StatusBadRequest)
}

func StorageError(err error) *AppError {
	return Wrap(err, ErrCodeStorageError, "Failed to save uploaded file", http.StatusInternalServerError)
}

// Lookup errors

func MissingQuery() *AppError {
	return New(ErrCodeMissingQuery,
		"Please provide an id query parameter, e.g. /search?id=123",
		http.StatusBadRequest)
}

// DataFileNotFound is returned by lookups issued before any upload. The missing
// file is reported as a client error since the remedy is to upload one.
func DataFileNotFound(displayPath string) *AppError {
	return New(ErrCodeDataFileNotFound,
		fmt.Sprintf("Data file not found. Upload a file via the UI or place %s in the repo.", displayPath),
		http.StatusBadRequest)
}

func FileParseError(err error) *AppError {
	return Wrap(err, ErrCodeFileParseError, "Failed to read or parse Excel file", http.StatusInternalServerError)
}

// Lock errors

func LockUnavailable(err error) *AppError {
	return Wrap(err, ErrCodeLockUnavailable, "storage is busy, try again", http.StatusServiceUnavailable)
}

// GetAppError extracts AppError from error chain
func GetAppError(err error) (*AppError, bool) {
	var appErr *AppError
	ok := errors.As(err, &appErr)
	return appErr, ok
}

// HasCode reports whether err carries an AppError with the given code
func HasCode(err error, code ErrorCode) bool {
	appErr, ok := GetAppError(err)
	return ok && appErr.Code == code
}
