package server

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"lorebook/pkg/schema"
	"lorebook/pkg/utils"
)

func (s *Server) handleGetRoot(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"service": "Lorebook Editor API",
		"status":  "ok",
		"entries": s.Book.Len(),
	})
}

// GET /api/lorebook
func (s *Server) handleGetLorebook(c echo.Context) error {
	var buf bytes.Buffer
	if err := s.Book.Export(&buf); err != nil {
		return apiError(err)
	}
	name := fmt.Sprintf("lorebook_%s.json", time.Now().Format(time.DateOnly))
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", name))
	return c.Blob(http.StatusOK, echo.MIMEApplicationJSON, buf.Bytes())
}

// GET /api/lorebook/schema
func (s *Server) handleGetSchema(c echo.Context) error {
	return c.JSON(http.StatusOK, schema.LorebookSchema)
}

type entryStats struct {
	UID     int    `json:"uid"`
	Comment string `json:"comment"`
	Tokens  int    `json:"tokens"`
}

type statsResponse struct {
	Entries []entryStats `json:"entries"`
	Total   int          `json:"total"`
}

// GET /api/stats
func (s *Server) handleGetStats(c echo.Context) error {
	entries := s.Book.Entries()
	resp := statsResponse{Entries: make([]entryStats, 0, len(entries))}
	for _, e := range entries {
		n, err := utils.CountTokens(e.Content)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "token counting unavailable: "+err.Error())
		}
		resp.Entries = append(resp.Entries, entryStats{UID: e.UID, Comment: e.Comment, Tokens: n})
		resp.Total += n
	}
	return c.JSON(http.StatusOK, resp)
}

// GET /api/entries?q=
func (s *Server) handleGetEntries(c echo.Context) error {
	return c.JSON(http.StatusOK, s.Book.Search(c.QueryParam("q")))
}

func uidParam(c echo.Context) (int, error) {
	uid, err := strconv.Atoi(c.Param("uid"))
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "uid must be a number")
	}
	return uid, nil
}

// GET /api/entries/:uid
func (s *Server) handleGetEntry(c echo.Context) error {
	uid, err := uidParam(c)
	if err != nil {
		return err
	}
	e, err := s.Book.Get(uid)
	if err != nil {
		return apiError(err)
	}
	return c.JSON(http.StatusOK, e)
}
