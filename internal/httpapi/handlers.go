package httpapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/arzttarif/tarifengine/internal/catalog"
	"github.com/arzttarif/tarifengine/internal/feedback"
	"github.com/arzttarif/tarifengine/internal/orchestrator"
	"github.com/arzttarif/tarifengine/pkg/pagination"
)

// RegisterRoutes mounts every §6 HTTP surface handler under api.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/analyze-billing", h.AnalyzeBilling)
	api.POST("/test-example", h.TestExample)
	api.GET("/icd", h.SearchICD)
	api.GET("/chop", h.SearchCHOP)
	api.GET("/version", h.Version)
	api.POST("/submit-feedback", h.SubmitFeedback)
}

// AnalyzeBilling handles POST /api/analyze-billing.
func (h *Handler) AnalyzeBilling(c echo.Context) error {
	var req analyzeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	resp, err := h.orchestrator.Run(c.Request().Context(), req.toOrchestratorRequest())
	if err != nil {
		if _, ok := err.(*orchestrator.InputValidationError); ok {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		h.log.Error().Err(err).Msg("httpapi: analyze-billing failed")
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
	return c.JSON(http.StatusOK, analyzeResponseFrom(resp))
}

// TestExample handles POST /api/test-example: replays one built-in
// baseline scenario against the live pipeline and diffs the outcome.
func (h *Handler) TestExample(c echo.Context) error {
	var req testExampleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	example, ok := baselineExamples[req.ID]
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "unknown test example id")
	}
	lang := example.Lang
	if req.Lang != "" {
		lang = req.Lang
	}
	resp, err := h.orchestrator.Run(c.Request().Context(), orchestrator.Request{InputText: example.InputText, Lang: lang, UseICD: example.UseICD})
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
	dto := analyzeResponseFrom(resp)
	diff := example.diffAgainst(dto)
	return c.JSON(http.StatusOK, testExampleResponse{
		Passed:     len(diff) == 0,
		Diff:       diff,
		Result:     dto,
		TokenUsage: dto.TokenUsage,
	})
}

// SearchICD handles GET /api/icd?q=&lang=.
func (h *Handler) SearchICD(c echo.Context) error {
	return h.searchTable(c, catalog.TableICD)
}

// SearchCHOP handles GET /api/chop?q= — CHOP procedure codes are
// catalogued under the `tariff` table type (§4.1's table_type enum has
// no separate CHOP bucket; the original system's CHOP table loads as a
// tariff-type table).
func (h *Handler) SearchCHOP(c echo.Context) error {
	return h.searchTable(c, catalog.TableTariff)
}

func (h *Handler) searchTable(c echo.Context, typ catalog.TableType) error {
	lang := c.QueryParam("lang")
	if lang == "" {
		lang = "de"
	}
	q := c.QueryParam("q")
	entries := h.store.SearchTableEntries(typ, q, lang)

	page := pagination.FromContext(c)
	total := len(entries)
	start := page.Offset
	if start > total {
		start = total
	}
	end := start + page.Limit
	if end > total {
		end = total
	}
	window := entries[start:end]

	out := make([]codeHitDTO, 0, len(window))
	for _, e := range window {
		text := e.CodeText[lang]
		if text == "" {
			text = e.CodeText["de"]
		}
		out = append(out, codeHitDTO{Code: e.Code, CodeText: text})
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(out, total, page.Limit, page.Offset))
}

// Version handles GET /api/version.
func (h *Handler) Version(c echo.Context) error {
	return c.JSON(http.StatusOK, versionResponse{Version: h.version, TarifVersion: h.tarifVersion})
}

// SubmitFeedback handles POST /api/submit-feedback.
func (h *Handler) SubmitFeedback(c echo.Context) error {
	var req feedbackRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.InputText == "" || req.Rating == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "inputText and rating are required")
	}
	report := &feedback.Report{InputText: req.InputText, Rating: req.Rating, Comment: req.Comment, Context: req.Context}
	saved, err := h.feedback.Submit(c.Request().Context(), report)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusAccepted, map[string]any{"id": saved.ID, "github_issue_url": saved.GitHubIssueURL})
}
