// Package server exposes the dedupe engine over JSON HTTP.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/verisphere/semantic-dedupe/dedupe"
	"github.com/verisphere/semantic-dedupe/internal/profile"
	"github.com/verisphere/semantic-dedupe/store"
)

type Server struct {
	echoServer *echo.Echo
	profile    *profile.Profile
	store      *store.Store
	engine     *dedupe.Engine
}

// NewServer creates the HTTP server and registers all routes.
func NewServer(_ context.Context, profile *profile.Profile, store *store.Store, engine *dedupe.Engine) (*Server, error) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())

	s := &Server{
		echoServer: e,
		profile:    profile,
		store:      store,
		engine:     engine,
	}

	e.HTTPErrorHandler = s.errorHandler

	e.GET("/health", s.health)
	e.POST("/claims/check-duplicate", s.checkDuplicate)
	e.POST("/claims/check-duplicate-batch", s.checkDuplicateBatch)

	return s, nil
}

func (s *Server) Start(_ context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.profile.Addr, s.profile.Port)
	slog.Info("starting dedupe server", "addr", addr, "driver", s.profile.Driver(), "provider", s.profile.EmbeddingsProvider)
	return s.echoServer.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := s.echoServer.Shutdown(ctx); err != nil {
		slog.Error("failed to shutdown server", "error", err)
	}
	if err := s.store.Close(); err != nil {
		slog.Error("failed to close store", "error", err)
	}
	slog.Info("dedupe server stopped")
}

// errorHandler renders every error as {"detail": ...}. Unclassified errors
// become 500s; the detail string is the error chain, matching what the
// handlers deliberately surface.
func (s *Server) errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	detail := err.Error()
	if httpErr, ok := err.(*echo.HTTPError); ok {
		code = httpErr.Code
		detail = fmt.Sprintf("%v", httpErr.Message)
	}

	if code >= http.StatusInternalServerError {
		slog.Error("request failed", "method", c.Request().Method, "path", c.Path(), "error", err)
	}

	if err := c.JSON(code, map[string]string{"detail": detail}); err != nil {
		slog.Error("failed to write error response", "error", err)
	}
}
