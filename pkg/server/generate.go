package server

import (
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"

	"lorebook/pkg/generate"
	"lorebook/pkg/schema"
	"lorebook/pkg/utils"
)

type generateReq struct {
	Prompt     string `json:"prompt"`
	TemplateID string `json:"templateId,omitempty"`
}

type batchReq struct {
	World      string `json:"world"`
	Quantity   int    `json:"quantity"`
	TemplateID string `json:"templateId,omitempty"`
}

// request snapshots the connection and output format for one run. The
// custom provider can only be used after a successful connection test.
func (s *Server) request(templateID string) (generate.Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.settings.Provider == schema.ProviderCustom && !s.connected {
		return generate.Request{}, echo.NewHTTPError(http.StatusPreconditionFailed, "Connect to Custom API first")
	}
	if templateID == "" {
		templateID = s.settings.TemplateID
	}
	mode, template := s.settings.Resolve(templateID)
	return generate.Request{
		Config:   s.settings.ApiConfig(),
		Mode:     mode,
		Template: template,
	}, nil
}

// eventStream opens the SSE response on the first event, so failures before
// any progress can still be answered with a plain HTTP error.
type eventStream struct {
	c echo.Context
	w *utils.SSEWriter
}

func (es *eventStream) started() bool { return es.w != nil }

func (es *eventStream) send(ev generate.Event) {
	if es.w == nil {
		w, err := utils.NewSSEWriter(es.c)
		if err != nil {
			log.Error("cannot stream events", "error", err)
			return
		}
		es.w = w
	}
	if err := es.w.Event(string(ev.Type), ev); err != nil {
		log.Warn("SSE write error", "error", err)
	}
}

// finish ends the response: a plain error if nothing was streamed yet,
// otherwise an error event followed by close.
func (es *eventStream) finish(err error, result any) error {
	if !es.started() {
		if err != nil {
			return apiError(err)
		}
		return es.c.JSON(http.StatusOK, result)
	}
	if err != nil {
		he := apiError(err)
		_ = es.w.Event("error", map[string]any{"status": he.Code, "error": he.Message})
	}
	es.w.Close()
	return nil
}

// POST /api/entries/:uid/generate
func (s *Server) handlePostGenerate(c echo.Context) error {
	uid, err := uidParam(c)
	if err != nil {
		return err
	}
	var req generateReq
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid json")
	}
	if strings.TrimSpace(req.Prompt) == "" {
		return apiError(generate.ErrEmptyPrompt)
	}
	if _, err := s.Book.Get(uid); err != nil {
		return apiError(err)
	}
	run, err := s.request(req.TemplateID)
	if err != nil {
		return err
	}

	es := &eventStream{c: c}
	entry, err := s.Generator.Single(c.Request().Context(), uid, req.Prompt, run, es.send)
	if err != nil {
		log.Error("generation failed", "uid", uid, "error", err)
	}
	return es.finish(err, entry)
}

// POST /api/batch
func (s *Server) handlePostBatch(c echo.Context) error {
	var req batchReq
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid json")
	}
	if strings.TrimSpace(req.World) == "" {
		return apiError(generate.ErrEmptyWorld)
	}
	run, err := s.request(req.TemplateID)
	if err != nil {
		return err
	}

	es := &eventStream{c: c}
	res, err := s.Generator.Batch(c.Request().Context(), req.World, req.Quantity, run, es.send)
	if err != nil {
		log.Error("batch failed", "world", req.World, "error", err)
	}
	return es.finish(err, res)
}
