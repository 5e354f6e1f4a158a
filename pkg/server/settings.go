package server

import (
	"net/http"
	"slices"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"

	"lorebook/pkg/inference"
	"lorebook/pkg/schema"
	"lorebook/pkg/settings"
)

type settingsResponse struct {
	settings.Settings
	Connected bool     `json:"connected"`
	Models    []string `json:"models"`
}

type settingsReq struct {
	Provider    *schema.Provider `json:"provider,omitempty"`
	CustomURL   *string          `json:"customUrl,omitempty"`
	CustomKey   *string          `json:"customKey,omitempty"`
	CustomModel *string          `json:"customModel,omitempty"`
	TemplateID  *string          `json:"templateId,omitempty"`
}

type templateReq struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

type connectReq struct {
	URL string `json:"url"`
	Key string `json:"key"`
}

// snapshot is called with mu held.
func (s *Server) snapshot() settingsResponse {
	return settingsResponse{
		Settings:  s.settings,
		Connected: s.connected,
		Models:    slices.Clone(s.models),
	}
}

// save persists the settings. Called with mu held.
func (s *Server) save() error {
	if err := s.Store.Save(s.settings); err != nil {
		log.Error("failed to save settings", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to save settings")
	}
	return nil
}

// GET /api/settings
func (s *Server) handleGetSettings(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return c.JSON(http.StatusOK, s.snapshot())
}

// PUT /api/settings
func (s *Server) handlePutSettings(c echo.Context) error {
	var req settingsReq
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid json")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.settings
	if req.Provider != nil {
		if !req.Provider.Valid() {
			return echo.NewHTTPError(http.StatusBadRequest, "provider must be gemini or custom")
		}
		next.Provider = *req.Provider
	}
	if req.CustomURL != nil {
		next.CustomURL = *req.CustomURL
	}
	if req.CustomKey != nil {
		next.CustomKey = *req.CustomKey
	}
	if req.CustomModel != nil {
		if s.connected && !slices.Contains(s.models, *req.CustomModel) {
			return echo.NewHTTPError(http.StatusBadRequest, "model is not offered by the connected API")
		}
		next.CustomModel = *req.CustomModel
	}
	if req.TemplateID != nil {
		id := *req.TemplateID
		known := id == string(schema.ModeBrief) || id == string(schema.ModeDetailed) ||
			slices.ContainsFunc(next.Templates, func(t schema.Template) bool { return t.ID == id })
		if !known {
			return echo.NewHTTPError(http.StatusBadRequest, "unknown template")
		}
		next.TemplateID = id
	}

	if next.CustomURL != s.settings.CustomURL || next.CustomKey != s.settings.CustomKey {
		s.connected = false
		s.models = nil
	}
	s.settings = next
	if err := s.save(); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, s.snapshot())
}

// GET /api/templates
func (s *Server) handleGetTemplates(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return c.JSON(http.StatusOK, map[string]any{
		"selected":  s.settings.TemplateID,
		"templates": slices.Clone(s.settings.Templates),
	})
}

// POST /api/templates
func (s *Server) handlePostTemplate(c echo.Context) error {
	var req templateReq
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid json")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.settings.AddTemplate(req.Name, req.Content)
	if err != nil {
		return apiError(err)
	}
	if err := s.save(); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, t)
}

// DELETE /api/templates/:id
func (s *Server) handleDeleteTemplate(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.settings.DeleteTemplate(c.Param("id")) {
		return echo.NewHTTPError(http.StatusNotFound, "template not found")
	}
	if err := s.save(); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// POST /api/connect
func (s *Server) handlePostConnect(c echo.Context) error {
	var req connectReq
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid json")
	}

	s.mu.Lock()
	url, key := s.settings.CustomURL, s.settings.CustomKey
	s.mu.Unlock()
	if req.URL != "" {
		url, key = req.URL, req.Key
	}

	models, err := s.Gateway.ConnectionTest(c.Request().Context(), url, key)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.connected = false
		s.models = nil
		log.Warn("connection test failed", "url", url, "error", err)
		return apiError(err)
	}

	s.settings.CustomURL = url
	s.settings.CustomKey = key
	s.settings.CustomModel = inference.PickModel(models, s.settings.CustomModel)
	s.models = models
	s.connected = true
	log.Info("connected to custom API", "url", url, "models", len(models), "model", s.settings.CustomModel)

	if err := s.save(); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, s.snapshot())
}
