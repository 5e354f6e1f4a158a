package server

import (
	"io"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"
)

// PUT /api/lorebook
func (s *Server) handlePutLorebook(c echo.Context) error {
	if err := s.Book.Import(c.Request().Body); err != nil {
		log.Warn("rejected lorebook import", "error", err)
		return apiError(err)
	}
	return c.JSON(http.StatusOK, map[string]int{"entries": s.Book.Len()})
}

// POST /api/entries
func (s *Server) handlePostEntry(c echo.Context) error {
	return c.JSON(http.StatusCreated, s.Book.Add())
}

// PATCH /api/entries/:uid
func (s *Server) handlePatchEntry(c echo.Context) error {
	uid, err := uidParam(c)
	if err != nil {
		return err
	}
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "unreadable body")
	}
	e, err := s.Book.Patch(uid, body)
	if err != nil {
		return apiError(err)
	}
	return c.JSON(http.StatusOK, e)
}

// DELETE /api/entries/:uid
func (s *Server) handleDeleteEntry(c echo.Context) error {
	uid, err := uidParam(c)
	if err != nil {
		return err
	}
	if err := s.Book.Delete(uid); err != nil {
		return apiError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
