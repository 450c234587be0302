package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"ecclesia/internal/allocate"
	"ecclesia/internal/app"
	"ecclesia/internal/history"
	"ecclesia/internal/scenario"
)

type Handler struct {
	service *app.Service
}

func NewHandler(service *app.Service) *Handler {
	return &Handler{service: service}
}

type allocateRequest struct {
	TotalDuration int    `json:"totalDuration"`
	PerCut        int    `json:"perCut"`
	Count         int    `json:"count"`
	Description   string `json:"description"`
	Language      string `json:"language"`
}

type rebalanceRequest struct {
	TotalDuration int            `json:"totalDuration"`
	Cuts          []scenario.Cut `json:"cuts"`
}

type scenarioRequest struct {
	ProjectTitle  string         `json:"projectTitle"`
	Theme         string         `json:"theme"`
	TotalDuration int            `json:"totalDuration"`
	PerCut        int            `json:"perCut"`
	Cuts          []scenario.Cut `json:"cuts"`
	Model         string         `json:"model"`
	Language      string         `json:"language"`
}

type scenarioResponse struct {
	Scenario json.RawMessage `json:"scenario"`
	JSON     string          `json:"json"`
	Cuts     []scenario.Cut  `json:"cuts"`
	Item     history.Item    `json:"item"`
	Saved    bool            `json:"saved"`
}

type errorResponse struct {
	Error string        `json:"error"`
	Kind  scenario.Kind `json:"kind,omitempty"`
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"provider": h.service.Generator().Name(),
		"busy":     h.service.Busy(),
	})
}

func (h *Handler) AllocateCuts(c *gin.Context) {
	var req allocateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err, req.Language)
		return
	}

	var (
		cuts []scenario.Cut
		err  error
	)
	if req.Count > 0 {
		cuts, err = allocate.Even(req.TotalDuration, req.Count, req.Description)
	} else {
		cuts, err = allocate.ByLength(req.TotalDuration, req.PerCut, req.Description)
	}
	if err != nil {
		h.fail(c, err, h.lang(c, req.Language))
		return
	}

	c.JSON(http.StatusOK, gin.H{"cuts": cuts})
}

func (h *Handler) RebalanceCuts(c *gin.Context) {
	var req rebalanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err, "")
		return
	}
	if len(req.Cuts) == 0 {
		h.fail(c, scenario.NoCutsError("no cuts to rebalance"), h.lang(c, ""))
		return
	}

	if err := allocate.CheckCount(len(req.Cuts)); err != nil {
		h.fail(c, err, h.lang(c, ""))
		return
	}

	cuts, changed := allocate.Rebalance(req.Cuts, req.TotalDuration)
	c.JSON(http.StatusOK, gin.H{"cuts": cuts, "changed": changed})
}

func (h *Handler) CreateScenario(c *gin.Context) {
	var req scenarioRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err, req.Language)
		return
	}

	outcome, err := h.service.Submit(c.Request.Context(), app.Submission{
		ProjectTitle:  req.ProjectTitle,
		Theme:         req.Theme,
		TotalDuration: req.TotalDuration,
		PerCut:        req.PerCut,
		Cuts:          req.Cuts,
		Model:         req.Model,
		Language:      req.Language,
	})
	if err != nil {
		h.fail(c, err, h.lang(c, req.Language))
		return
	}

	c.JSON(http.StatusOK, scenarioResponse{
		Scenario: json.RawMessage(outcome.Result.JSON),
		JSON:     outcome.Result.JSON,
		Cuts:     outcome.Request.Cuts,
		Item:     outcome.Item,
		Saved:    outcome.Saved,
	})
}

func (h *Handler) ListHistory(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"items": h.service.History().List()})
}

func (h *Handler) GetHistory(c *gin.Context) {
	item, ok := h.service.History().Get(c.Param("id"))
	if !ok {
		h.notFound(c)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *Handler) DeleteHistory(c *gin.Context) {
	if h.service.Busy() {
		h.fail(c, app.ErrBusy, h.lang(c, ""))
		return
	}

	removed, err := h.service.History().Remove(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err, h.lang(c, ""))
		return
	}
	if !removed {
		h.notFound(c)
		return
	}
	c.Status(http.StatusNoContent)
}

// ClearHistory requires ?confirm=true, the API's version of the
// confirmation prompt.
func (h *Handler) ClearHistory(c *gin.Context) {
	if c.Query("confirm") != "true" {
		c.JSON(http.StatusBadRequest, errorResponse{
			Error: h.service.Catalog().T(h.lang(c, ""), "confirmClearHistory"),
		})
		return
	}

	if h.service.Busy() {
		h.fail(c, app.ErrBusy, h.lang(c, ""))
		return
	}

	if err := h.service.History().Clear(c.Request.Context()); err != nil {
		h.fail(c, err, h.lang(c, ""))
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) Messages(c *gin.Context) {
	catalog := h.service.Catalog()
	locale := catalog.Locale(c.Param("lang"))
	c.JSON(http.StatusOK, gin.H{
		"locale":   locale,
		"messages": catalog.Messages(locale),
	})
}

func (h *Handler) fail(c *gin.Context, err error, lang string) {
	c.JSON(statusFor(err), errorResponse{
		Error: h.service.UserMessage(err, lang),
		Kind:  scenario.KindOf(err),
	})
}

func (h *Handler) badRequest(c *gin.Context, err error, lang string) {
	c.JSON(http.StatusBadRequest, errorResponse{
		Error: h.service.Catalog().T(h.lang(c, lang), "clientSideError") + " " + err.Error(),
	})
}

func (h *Handler) notFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, errorResponse{
		Error: h.service.Catalog().T(h.lang(c, ""), "historyNotFound", "id", c.Param("id")),
	})
}

// lang prefers the explicit language, then Accept-Language, then the
// configured default.
func (h *Handler) lang(c *gin.Context, explicit string) string {
	if explicit != "" {
		return explicit
	}
	if header := c.GetHeader("Accept-Language"); header != "" {
		if tags, err := parseAcceptLanguage(header); err == nil && len(tags) > 0 {
			return tags[0]
		}
	}
	return string(h.service.DefaultLanguage())
}

func statusFor(err error) int {
	if errors.Is(err, app.ErrBusy) {
		return http.StatusConflict
	}
	switch scenario.KindOf(err) {
	case scenario.KindValidation, scenario.KindNoCuts:
		return http.StatusBadRequest
	case scenario.KindEmptyResponse, scenario.KindMalformedResponse, scenario.KindStructuralMismatch, scenario.KindService:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
