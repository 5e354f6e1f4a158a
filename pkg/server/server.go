package server

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"lorebook/pkg/generate"
	"lorebook/pkg/inference"
	"lorebook/pkg/lorebook"
	"lorebook/pkg/settings"
)

// Gateway is the model gateway as seen by the HTTP API.
type Gateway interface {
	generate.Gateway
	ConnectionTest(ctx context.Context, baseURL, apiKey string) ([]string, error)
}

type Server struct {
	Echo      *echo.Echo
	Gateway   Gateway
	Book      *lorebook.Book
	Generator *generate.Generator
	Store     settings.Store
	Ctx       context.Context

	// BookPath is where Shutdown saves the book. Empty skips saving.
	BookPath string

	mu        sync.Mutex
	settings  settings.Settings
	models    []string
	connected bool
}

func NewServer(ctx context.Context, gateway Gateway, book *lorebook.Book, store settings.Store) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Logger())
	e.Use(middleware.CORS())

	s := &Server{
		Echo:      e,
		Gateway:   gateway,
		Book:      book,
		Generator: generate.New(gateway, book),
		Store:     store,
		Ctx:       ctx,
		settings:  store.Load(),
	}

	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.Echo.GET("/", s.handleGetRoot)

	api := s.Echo.Group("/api")
	api.GET("/lorebook", s.handleGetLorebook)      // export as a download
	api.PUT("/lorebook", s.handlePutLorebook)      // import, replacing the book
	api.GET("/lorebook/schema", s.handleGetSchema) // JSON Schema of the document
	api.GET("/stats", s.handleGetStats)            // token counts per entry

	api.GET("/entries", s.handleGetEntries)
	api.POST("/entries", s.handlePostEntry)
	api.GET("/entries/:uid", s.handleGetEntry)
	api.PATCH("/entries/:uid", s.handlePatchEntry)
	api.DELETE("/entries/:uid", s.handleDeleteEntry)
	api.POST("/entries/:uid/generate", s.handlePostGenerate) // SSE
	api.POST("/batch", s.handlePostBatch)                    // SSE

	api.GET("/settings", s.handleGetSettings)
	api.PUT("/settings", s.handlePutSettings)
	api.GET("/templates", s.handleGetTemplates)
	api.POST("/templates", s.handlePostTemplate)
	api.DELETE("/templates/:id", s.handleDeleteTemplate)
	api.POST("/connect", s.handlePostConnect)
}

func (s *Server) Start(addr string) error {
	log.Info("Server listening", "addr", addr)
	return s.Echo.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	log.Info("Shutting down server...")

	var saveErr error
	if s.BookPath != "" {
		saveErr = s.Book.Save(s.BookPath)
	}
	s.mu.Lock()
	settingsErr := s.Store.Save(s.settings)
	s.mu.Unlock()

	shutDownErr := s.Echo.Shutdown(ctx)
	if shutDownErr != nil {
		return shutDownErr
	}
	return errors.Join(saveErr, settingsErr)
}

// apiError maps domain errors onto HTTP errors.
func apiError(err error) *echo.HTTPError {
	var he *echo.HTTPError
	var connErr *inference.ConnectionError
	var httpErr *inference.HTTPError
	var empty *generate.EmptyResultError

	switch {
	case errors.As(err, &he):
		return he
	case errors.As(err, &connErr):
		return echo.NewHTTPError(http.StatusBadGateway, connErr.Error())
	case errors.As(err, &httpErr):
		return echo.NewHTTPError(http.StatusBadGateway, httpErr.Error())
	case errors.As(err, &empty):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, empty.Error())
	case errors.Is(err, generate.ErrBusy):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, lorebook.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, lorebook.ErrInvalidDocument),
		errors.Is(err, generate.ErrEmptyPrompt),
		errors.Is(err, generate.ErrEmptyWorld),
		errors.Is(err, settings.ErrTemplateInvalid):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, context.Canceled):
		return echo.NewHTTPError(http.StatusServiceUnavailable, "request cancelled")
	default:
		log.Error("unhandled error", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
