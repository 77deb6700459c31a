package httpapi

import (
	"github.com/arzttarif/tarifengine/internal/llmgateway"
	"github.com/arzttarif/tarifengine/internal/orchestrator"
	"github.com/arzttarif/tarifengine/internal/rules"
)

// analyzeRequest is POST /api/analyze-billing's body (§6).
type analyzeRequest struct {
	InputText  string   `json:"inputText"`
	ICD        []string `json:"icd"`
	GTIN       []string `json:"gtin"`
	Age        *int     `json:"age"`
	Gender     string   `json:"gender"`
	UseICD     *bool    `json:"useIcd"`
	Lang       string   `json:"lang"`
	Laterality string   `json:"laterality"`
	Count      int      `json:"count"`
}

func (r analyzeRequest) toOrchestratorRequest() orchestrator.Request {
	return orchestrator.Request{
		InputText:  r.InputText,
		ICD:        r.ICD,
		GTIN:       r.GTIN,
		Age:        r.Age,
		Gender:     r.Gender,
		UseICD:     r.UseICD,
		Lang:       r.Lang,
		Laterality: r.Laterality,
		Count:      r.Count,
	}
}

type ruleResultDTO struct {
	LKN             string   `json:"lkn"`
	Billable        bool     `json:"billable"`
	FinalMenge      int      `json:"final_menge"`
	QuantityReduced bool     `json:"quantity_reduced"`
	Errors          []string `json:"errors"`
}

func ruleResultsDTO(results []rules.ItemResult) []ruleResultDTO {
	out := make([]ruleResultDTO, 0, len(results))
	for _, r := range results {
		out = append(out, ruleResultDTO{
			LKN:             r.LKN,
			Billable:        r.Billable,
			FinalMenge:      r.FinalMenge,
			QuantityReduced: r.QuantityReduced,
			Errors:          r.Errors,
		})
	}
	return out
}

type icdHintDTO struct {
	Code     string `json:"Code"`
	CodeText string `json:"Code_Text"`
}

type pauschaleDetailsDTO struct {
	Pauschale      string       `json:"Pauschale"`
	PauschaleText  string       `json:"Pauschale_Text"`
	Taxpunkte      float64      `json:"Taxpunkte"`
	ErklaerungHTML string       `json:"pauschale_erklaerung_html"`
	PotentialICDs  []icdHintDTO `json:"potential_icds"`
}

type leistungDTO struct {
	LKN         string `json:"lkn"`
	Menge       int    `json:"menge"`
	Typ         string `json:"typ"`
	Beschreibung string `json:"beschreibung"`
}

type evaluatedPauschaleDTO struct {
	Code              string `json:"code"`
	BedingungsPruefHTML string `json:"bedingungs_pruef_html"`
}

// abrechnungDTO is the tagged union §6 "Response contract" names. Only
// the fields relevant to Type are populated; the rest are omitted by
// `omitempty` on the zero value.
type abrechnungDTO struct {
	Type string `json:"type"`

	// Pauschale
	Details             *pauschaleDetailsDTO `json:"details,omitempty"`
	BedingungsPruefHTML string               `json:"bedingungs_pruef_html,omitempty"`
	BedingungsFehler    []string             `json:"bedingungs_fehler,omitempty"`
	ConditionsMet       *bool                `json:"conditions_met,omitempty"`

	// TARDOC
	Leistungen []leistungDTO `json:"leistungen,omitempty"`

	// Error
	Message            string                  `json:"message,omitempty"`
	EvaluatedPauschalen []evaluatedPauschaleDTO `json:"evaluated_pauschalen,omitempty"`
}

func abrechnungToDTO(a orchestrator.Abrechnung) abrechnungDTO {
	dto := abrechnungDTO{Type: a.Type}
	switch a.Type {
	case "Pauschale":
		var details *pauschaleDetailsDTO
		if a.Details != nil {
			hints := make([]icdHintDTO, 0, len(a.Details.PotentialICDs))
			for _, h := range a.Details.PotentialICDs {
				hints = append(hints, icdHintDTO{Code: h.Code, CodeText: h.Text})
			}
			details = &pauschaleDetailsDTO{
				Pauschale:      a.Details.Pauschale,
				PauschaleText:  a.Details.PauschaleText,
				Taxpunkte:      a.Details.Taxpunkte,
				ErklaerungHTML: a.Details.ErklaerungHTML,
				PotentialICDs:  hints,
			}
		}
		dto.Details = details
		dto.BedingungsPruefHTML = a.ConditionHTML
		dto.BedingungsFehler = a.ConditionErrors
		met := a.ConditionsMet
		dto.ConditionsMet = &met
	case "TARDOC":
		items := make([]leistungDTO, 0, len(a.Leistungen))
		for _, it := range a.Leistungen {
			items = append(items, leistungDTO{LKN: it.LKN, Menge: it.Menge, Typ: it.Typ, Beschreibung: it.Beschreibung})
		}
		dto.Leistungen = items
	case "Error":
		dto.Message = a.Message
		evaluated := make([]evaluatedPauschaleDTO, 0, len(a.EvaluatedPauschalen))
		for _, e := range a.EvaluatedPauschalen {
			evaluated = append(evaluated, evaluatedPauschaleDTO{Code: e.Code, BedingungsPruefHTML: e.ConditionHTML})
		}
		dto.EvaluatedPauschalen = evaluated
	}
	return dto
}

type usageDTO struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

func usageToDTO(u llmgateway.Usage) usageDTO {
	return usageDTO{PromptTokens: u.PromptTokens, CompletionTokens: u.CompletionTokens, TotalTokens: u.TotalTokens}
}

type tokenUsageDTO struct {
	Stage1 usageDTO `json:"stage1"`
	Stage2 usageDTO `json:"stage2"`
}

// analyzeResponse is POST /api/analyze-billing's body (§6).
type analyzeResponse struct {
	Stage1Result  any             `json:"llm_ergebnis_stufe1"`
	RuleResults   []ruleResultDTO `json:"regel_ergebnisse_details"`
	Abrechnung    abrechnungDTO   `json:"abrechnung"`
	Stage2Applied bool            `json:"llm_ergebnis_stufe2"`
	TokenUsage    tokenUsageDTO   `json:"token_usage"`
}

func analyzeResponseFrom(resp *orchestrator.Response) analyzeResponse {
	return analyzeResponse{
		Stage1Result:  resp.Stage1Result,
		RuleResults:   ruleResultsDTO(resp.RuleResults),
		Abrechnung:    abrechnungToDTO(resp.Abrechnung),
		Stage2Applied: resp.Stage2Applied,
		TokenUsage: tokenUsageDTO{
			Stage1: usageToDTO(resp.TokenUsage.Stage1),
			Stage2: usageToDTO(resp.TokenUsage.Stage2),
		},
	}
}

type codeHitDTO struct {
	Code     string `json:"code"`
	CodeText string `json:"text"`
}

type feedbackRequest struct {
	InputText string         `json:"inputText"`
	Rating    string         `json:"rating"`
	Comment   string         `json:"comment"`
	Context   map[string]any `json:"context"`
}

type versionResponse struct {
	Version      string `json:"version"`
	TarifVersion string `json:"tarif_version"`
}

type testExampleRequest struct {
	ID   string `json:"id"`
	Lang string `json:"lang"`
}

type testExampleResponse struct {
	Passed bool            `json:"passed"`
	Diff   []string        `json:"diff"`
	Result analyzeResponse `json:"result"`
	TokenUsage tokenUsageDTO `json:"token_usage"`
}
