package orchestrator

import (
	"github.com/arzttarif/tarifengine/internal/billing"
	"github.com/arzttarif/tarifengine/internal/llmgateway"
	"github.com/arzttarif/tarifengine/internal/rules"
	"github.com/arzttarif/tarifengine/internal/selector"
	"github.com/arzttarif/tarifengine/internal/stage1"
)

// Request is one `/api/analyze-billing` call's body (§6).
type Request struct {
	InputText  string
	ICD        []string
	GTIN       []string
	Age        *int
	Gender     string
	UseICD     *bool // nil defers to the configured default
	Lang       string
	Laterality string
	Count      int
}

// PauschaleDetails is the package-branch payload (§6 response contract).
type PauschaleDetails struct {
	Pauschale      string
	PauschaleText  string
	Taxpunkte      float64
	ErklaerungHTML string
	PotentialICDs  []selector.ICDHint
}

// EvaluatedPauschale is one candidate package considered but not won,
// surfaced on the Error path (§6 "evaluated_pauschalen").
type EvaluatedPauschale struct {
	Code          string
	ConditionHTML string
}

// Abrechnung is the tagged response union §6 names: "Pauschale",
// "TARDOC", or "Error".
type Abrechnung struct {
	Type string

	// Pauschale
	Details         *PauschaleDetails
	ConditionHTML   string
	ConditionErrors []string
	ConditionsMet   bool

	// TARDOC
	Leistungen []billing.Item

	// Error
	Message             string
	EvaluatedPauschalen []EvaluatedPauschale
}

// TokenUsage is the per-stage LLM accounting attached to every response
// (§6 "token_usage").
type TokenUsage struct {
	Stage1 llmgateway.Usage
	Stage2 llmgateway.Usage
}

// Response is the full `/api/analyze-billing` result.
type Response struct {
	Stage1Result  stage1.Result
	RuleResults   []rules.ItemResult
	Abrechnung    Abrechnung
	Stage2Applied bool
	TokenUsage    TokenUsage
}
