// Package httpapi serves the lens engine as a small JSON API.
package httpapi

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/toyz/railslens/internal/errors"
	"github.com/toyz/railslens/internal/lens"
	"github.com/toyz/railslens/internal/models"
	"github.com/toyz/railslens/internal/utils"
)

// Server exposes lenses and routes over HTTP
type Server struct {
	engine      *lens.Engine
	diagnostics *utils.DiagnosticSystem
	echo        *echo.Echo
}

// HealthResponse is returned by GET /healthz
type HealthResponse struct {
	Status     string   `json:"status"`
	Version    string   `json:"version"`
	Workspaces []string `json:"workspaces"`
	Providers  []string `json:"providers"`
}

// LensesResponse is returned by GET /lenses
type LensesResponse struct {
	Path   string        `json:"path"`
	Lenses []models.Lens `json:"lenses"`
}

// RoutesResponse is returned by the route endpoints
type RoutesResponse struct {
	Workspace string         `json:"workspace"`
	Routes    []models.Route `json:"routes"`
}

// NewServer creates the HTTP API for engine
func NewServer(engine *lens.Engine, diagnostics *utils.DiagnosticSystem, version string) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = errorHandler

	s := &Server{engine: engine, diagnostics: diagnostics, echo: e}
	e.Use(s.logRequests)

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, HealthResponse{
			Status:     "ok",
			Version:    version,
			Workspaces: nonNil(engine.Workspaces()),
			Providers:  nonNil(engine.Providers()),
		})
	})
	e.GET("/lenses", s.lenses)
	e.GET("/routes", s.routes)
	e.POST("/routes/rebuild", s.rebuild)

	return s
}

// Start listens on addr until Stop is called
func (s *Server) Start(addr string) error {
	s.diagnostics.Info("Serving HTTP API on %s", addr)
	if err := s.echo.Start(addr); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop shuts the server down gracefully
func (s *Server) Stop(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// Handler returns the underlying HTTP handler
func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) lenses(c echo.Context) error {
	path := c.QueryParam("path")
	if path == "" {
		return ErrBadRequest("query parameter 'path' is required")
	}
	if !filepath.IsAbs(path) {
		root, err := s.engine.Workspace(c.QueryParam("workspace"))
		if err != nil {
			return err
		}
		path = filepath.Join(root, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return errors.WrapFileSystemError("read", path, err)
	}

	doc := models.Document{Path: path, Text: string(data)}
	found := s.engine.Scan(c.Request().Context(), doc)
	if found == nil {
		found = []models.Lens{}
	}
	return c.JSON(http.StatusOK, LensesResponse{Path: path, Lenses: found})
}

func (s *Server) routes(c echo.Context) error {
	root, err := s.engine.Workspace(c.QueryParam("workspace"))
	if err != nil {
		return err
	}

	found, err := s.engine.Routes(root, c.QueryParam("controller"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, RoutesResponse{Workspace: root, Routes: nonNil(found)})
}

func (s *Server) rebuild(c echo.Context) error {
	root, err := s.engine.Workspace(c.QueryParam("workspace"))
	if err != nil {
		return err
	}

	found, err := s.engine.Rebuild(c.Request().Context(), root)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, RoutesResponse{Workspace: root, Routes: nonNil(found)})
}

func (s *Server) logRequests(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		started := time.Now()
		err := next(c)
		if err != nil {
			c.Error(err)
		}
		s.diagnostics.Verbose("%s %s -> %d (%s)",
			c.Request().Method, c.Request().URL.RequestURI(), c.Response().Status, time.Since(started).Round(time.Microsecond))
		return nil
	}
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
