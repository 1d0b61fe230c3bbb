package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	apperrors "funnel-workers/internal/common/errors"
	"funnel-workers/internal/funnel/analyzer"
	"funnel-workers/internal/funnel/profile"
	"funnel-workers/internal/funnel/sections"
	"funnel-workers/internal/funnel/structure"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const maxPromptLength = 20000

type FunnelHandler struct {
	analyzer  *analyzer.Analyzer
	engine    *structure.Engine
	extractor *profile.Extractor
	templates sections.TemplateLookup
	search    sections.TemplateSearcher
}

type PromptRequest struct {
	Prompt     string   `json:"prompt"`
	Industry   string   `json:"industry,omitempty"`
	Objectives []string `json:"objectives,omitempty"`
}

type BlueprintResponse struct {
	BlueprintID     string                  `json:"blueprintId"`
	Analysis        analyzer.PromptAnalysis `json:"analysis"`
	Resolution      structure.Resolution    `json:"resolution"`
	Profile         profile.CustomerProfile `json:"profile"`
	Placeholders    []sections.Placeholder  `json:"placeholders"`
	MissingSections []string                `json:"missingSections,omitempty"`
}

type SearchResponse struct {
	Hits  []sections.SearchHit `json:"hits"`
	Total int                  `json:"total"`
}

func bindPrompt(c *gin.Context) (*PromptRequest, bool) {
	var req PromptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, apperrors.NewInputValidationError("invalid request body: "+err.Error()))
		return nil, false
	}
	if strings.TrimSpace(req.Prompt) == "" {
		RespondError(c, apperrors.NewInputValidationError("prompt is required"))
		return nil, false
	}
	if len(req.Prompt) > maxPromptLength {
		RespondError(c, apperrors.NewInputValidationError("prompt exceeds "+strconv.Itoa(maxPromptLength)+" characters"))
		return nil, false
	}
	return &req, true
}

func (h *FunnelHandler) Analyze(c *gin.Context) {
	req, ok := bindPrompt(c)
	if !ok {
		return
	}
	RespondOK(c, h.analyzer.Analyze(req.Prompt))
}

func (h *FunnelHandler) Structure(c *gin.Context) {
	req, ok := bindPrompt(c)
	if !ok {
		return
	}
	RespondOK(c, h.engine.Apply(req.Prompt, req.Industry, req.Objectives))
}

func (h *FunnelHandler) Profile(c *gin.Context) {
	req, ok := bindPrompt(c)
	if !ok {
		return
	}
	RespondOK(c, h.extractor.Extract(req.Prompt))
}

// Blueprint runs the whole offline pipeline for one prompt.
func (h *FunnelHandler) Blueprint(c *gin.Context) {
	req, ok := bindPrompt(c)
	if !ok {
		return
	}

	resolution := h.engine.Apply(req.Prompt, req.Industry, req.Objectives)
	resp := BlueprintResponse{
		BlueprintID:  uuid.New().String(),
		Analysis:     resolution.Analysis,
		Resolution:   resolution,
		Profile:      h.extractor.Extract(req.Prompt),
		Placeholders: []sections.Placeholder{},
	}

	if h.templates != nil {
		catalog, err := sections.ResolveCatalog(c.Request.Context(), h.templates, resolution.SectionOrder)
		if err != nil {
			_ = c.Error(err)
			RespondError(c, err)
			return
		}
		placeholders, missing := sections.RenderPlaceholders(resolution.SectionOrder, catalog, resolution.Microcopy)
		resp.Placeholders = placeholders
		resp.MissingSections = missing
	}

	c.JSON(http.StatusCreated, resp)
}

func (h *FunnelHandler) SearchSections(c *gin.Context) {
	if h.search == nil {
		RespondError(c, apperrors.New(apperrors.ErrCodeSearchQueryFailed, "search is not configured"))
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			RespondError(c, apperrors.NewInputValidationError("limit must be a non-negative integer"))
			return
		}
		limit = n
	}

	hits, err := h.search.Search(c.Request.Context(), c.Query("industry"), c.Query("useCase"), limit)
	if err != nil {
		_ = c.Error(err)
		RespondError(c, err)
		return
	}
	RespondOK(c, SearchResponse{Hits: hits, Total: len(hits)})
}

func HealthCheck(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

// ReadyCheck runs every check and answers 503 when any fails.
func ReadyCheck(checks map[string]ReadinessCheck) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := make(map[string]string, len(checks))
		var failed []error
		for name, check := range checks {
			if err := check(c.Request.Context()); err != nil {
				status[name] = err.Error()
				failed = append(failed, err)
				continue
			}
			status[name] = "ok"
		}

		code := http.StatusOK
		if len(failed) > 0 {
			code = http.StatusServiceUnavailable
			_ = c.Error(errors.Join(failed...))
		}
		c.JSON(code, gin.H{"ready": len(failed) == 0, "checks": status})
	}
}
