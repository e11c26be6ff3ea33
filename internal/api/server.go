// Package api exposes the upload and lookup services over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// ServerConfig configures the HTTP surface
type ServerConfig struct {
	PublicDir        string   // Static UI directory, empty to disable
	CORSAllowOrigins []string // Defaults to any origin
	MaxUploadSize    int64    // Bytes, 0 disables the upload size limit
	Debug            bool     // Adds the cause of internal errors to responses
}

// Server wraps the echo instance
type Server struct {
	echo    *echo.Echo
	handler *Handler
	config  ServerConfig
	logger  *slog.Logger
}

// NewServer builds the router with all middleware and routes
func NewServer(cfg ServerConfig, handler *Handler, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Debug = cfg.Debug

	s := &Server{
		echo:    e,
		handler: handler,
		config:  cfg,
		logger:  logger,
	}
	e.HTTPErrorHandler = s.errorHandler
	s.setupRoutes()

	return s
}

func (s *Server) setupRoutes() {
	e := s.echo

	origins := s.config.CORSAllowOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	// Middleware
	e.Use(middleware.RequestID())
	e.Use(middleware.Recover())
	e.Use(s.requestLogger())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: origins,
		AllowMethods: []string{http.MethodGet, http.MethodHead, http.MethodPost, http.MethodOptions},
	}))

	// API routes
	e.GET("/ping", s.handler.Ping)
	e.GET("/search", s.handler.Search)

	var uploadMiddleware []echo.MiddlewareFunc
	if s.config.MaxUploadSize > 0 {
		uploadMiddleware = append(uploadMiddleware,
			middleware.BodyLimit(fmt.Sprintf("%dB", s.config.MaxUploadSize)))
	}
	e.POST("/upload", s.handler.Upload, uploadMiddleware...)

	// Static UI
	if s.config.PublicDir != "" {
		e.Static("/", s.config.PublicDir)
	}
}

func (s *Server) requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
				slog.String("request_id", v.RequestID),
			}
			if v.Error != nil {
				attrs = append(attrs, slog.Any("error", v.Error))
			}
			s.logger.Info("request", attrs...)
			return nil
		},
	})
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

// Start listens on addr until Shutdown is called
func (s *Server) Start(addr string) error {
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
