package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/arzttarif/tarifengine/internal/catalog"
	"github.com/arzttarif/tarifengine/internal/feedback"
	"github.com/arzttarif/tarifengine/internal/orchestrator"
)

type stubOrchestrator struct {
	resp *orchestrator.Response
	err  error
}

func (s *stubOrchestrator) Run(ctx context.Context, req orchestrator.Request) (*orchestrator.Response, error) {
	return s.resp, s.err
}

type stubFeedback struct {
	saved *feedback.Report
	err   error
}

func (s *stubFeedback) Submit(ctx context.Context, r *feedback.Report) (*feedback.Report, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.saved = r
	return r, nil
}

func testStore() *catalog.Store {
	tables := []catalog.TableEntry{
		{TableName: "ICD10", Type: catalog.TableICD, Code: "M19.9", CodeText: map[string]string{"de": "Arthrose"}},
	}
	return catalog.NewStore(map[string]*catalog.CodeDetails{}, map[string][]catalog.Rule{}, tables, map[string]*catalog.PackageDefinition{}, map[string][]string{})
}

func newTestHandler(orch Orchestrator, fb FeedbackService) (*Handler, *echo.Echo) {
	h := NewHandler(zerolog.Nop(), orch, testStore(), fb, "1.2.3", "2026")
	return h, echo.New()
}

func TestAnalyzeBillingReturnsTARDOCResponse(t *testing.T) {
	resp := &orchestrator.Response{Abrechnung: orchestrator.Abrechnung{Type: "TARDOC", Leistungen: nil}}
	h, e := newTestHandler(&stubOrchestrator{resp: resp}, &stubFeedback{})

	body := `{"inputText":"Hausarztkonsultation 10 Minuten","lang":"de"}`
	req := httptest.NewRequest(http.MethodPost, "/api/analyze-billing", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.AnalyzeBilling(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var out analyzeResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if out.Abrechnung.Type != "TARDOC" {
		t.Fatalf("expected TARDOC, got %s", out.Abrechnung.Type)
	}
}

func TestAnalyzeBillingMapsValidationErrorTo400(t *testing.T) {
	h, e := newTestHandler(&stubOrchestrator{err: &orchestrator.InputValidationError{Message: "inputText is required"}}, &stubFeedback{})

	req := httptest.NewRequest(http.MethodPost, "/api/analyze-billing", strings.NewReader(`{}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.AnalyzeBilling(c)
	he, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected *echo.HTTPError, got %T", err)
	}
	if he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", he.Code)
	}
}

func TestSearchICDMatchesByCode(t *testing.T) {
	h, e := newTestHandler(&stubOrchestrator{}, &stubFeedback{})

	req := httptest.NewRequest(http.MethodGet, "/api/icd?q=m19&lang=de", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.SearchICD(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var out struct {
		Data    []codeHitDTO `json:"data"`
		Total   int          `json:"total"`
		HasMore bool         `json:"has_more"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if out.Total != 1 || len(out.Data) != 1 || out.Data[0].Code != "M19.9" {
		t.Fatalf("expected one paginated ICD hit for M19.9, got %+v", out)
	}
	if out.HasMore {
		t.Fatalf("expected has_more=false for a single-result page, got %+v", out)
	}
}

func TestVersionReturnsConfiguredValues(t *testing.T) {
	h, e := newTestHandler(&stubOrchestrator{}, &stubFeedback{})

	req := httptest.NewRequest(http.MethodGet, "/api/version", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.Version(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var out versionResponse
	json.Unmarshal(rec.Body.Bytes(), &out)
	if out.Version != "1.2.3" || out.TarifVersion != "2026" {
		t.Fatalf("unexpected version response: %+v", out)
	}
}

func TestSubmitFeedbackRequiresRating(t *testing.T) {
	h, e := newTestHandler(&stubOrchestrator{}, &stubFeedback{})

	req := httptest.NewRequest(http.MethodPost, "/api/submit-feedback", strings.NewReader(`{"inputText":"x"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.SubmitFeedback(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 echo.HTTPError, got %v", err)
	}
}

func TestSubmitFeedbackPersistsReport(t *testing.T) {
	fb := &stubFeedback{}
	h, e := newTestHandler(&stubOrchestrator{}, fb)

	req := httptest.NewRequest(http.MethodPost, "/api/submit-feedback", strings.NewReader(`{"inputText":"x","rating":"incorrect"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.SubmitFeedback(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rec.Code)
	}
	if fb.saved == nil || fb.saved.Rating != "incorrect" {
		t.Fatal("expected feedback to be persisted")
	}
}

func TestTestExampleUnknownIDReturns404(t *testing.T) {
	h, e := newTestHandler(&stubOrchestrator{}, &stubFeedback{})

	req := httptest.NewRequest(http.MethodPost, "/api/test-example", strings.NewReader(`{"id":"nope"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.TestExample(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusNotFound {
		t.Fatalf("expected 404 echo.HTTPError, got %v", err)
	}
}
