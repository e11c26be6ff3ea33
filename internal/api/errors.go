package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	apperrors "github.com/alejandroruanova/idlookup-service/internal/pkg/errors"
)

// errorHandler renders every error as an ErrorResponse
func (s *Server) errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	appErr := toAppError(err)
	body := ErrorResponse{Message: appErr.Message}
	switch {
	case appErr.Code == apperrors.ErrCodeFileParseError:
		body.Error = appErr.Cause()
	case s.config.Debug && appErr.Code == apperrors.ErrCodeInternal:
		body.Error = appErr.Cause()
	}

	attrs := []any{
		slog.String("code", string(appErr.Code)),
		slog.Int("status", appErr.StatusCode),
		slog.String("method", c.Request().Method),
		slog.String("path", c.Request().URL.Path),
		slog.Any("error", err),
	}
	if len(appErr.Details) > 0 {
		attrs = append(attrs, slog.Any("details", appErr.Details))
	}
	if appErr.StatusCode >= http.StatusInternalServerError {
		s.logger.Error("request failed", attrs...)
	} else {
		s.logger.Debug("request rejected", attrs...)
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(appErr.StatusCode)
	} else {
		err = c.JSON(appErr.StatusCode, body)
	}
	if err != nil {
		s.logger.Error("failed to write error response", slog.Any("error", err))
	}
}

// toAppError maps router errors and unexpected failures onto AppError
func toAppError(err error) *apperrors.AppError {
	if appErr, ok := apperrors.GetAppError(err); ok {
		return appErr
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		message := fmt.Sprint(he.Message)
		switch {
		case he.Code == http.StatusNotFound:
			return apperrors.NotFound(message)
		case he.Code == http.StatusBadRequest:
			return apperrors.BadRequest(message)
		case he.Code < http.StatusInternalServerError:
			return apperrors.Wrap(err, apperrors.ErrCodeBadRequest, message, he.Code)
		default:
			return apperrors.Wrap(err, apperrors.ErrCodeInternal, message, he.Code)
		}
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "Request canceled", http.StatusServiceUnavailable)
	}

	return apperrors.InternalWrap(err, http.StatusText(http.StatusInternalServerError))
}
