package selector

import "github.com/arzttarif/tarifengine/internal/catalog"

// ICDHint is one diagnosis that would have activated the winning
// package, harvested from its ICD_TABLE conditions (§4.8 step 8).
type ICDHint struct {
	Code string
	Text string
}

// EvaluatedCandidate records one candidate package's structural
// evaluation outcome and rendered condition HTML, regardless of whether
// it won. The Error response path surfaces these when no winner exists
// (§6 "evaluated_pauschalen").
type EvaluatedCandidate struct {
	Code          string
	Applicable    bool
	ConditionHTML string
}

// Result is the winning package plus its rendered rationale.
type Result struct {
	Package         *catalog.PackageDefinition
	Title           string
	Taxpunkte       float64
	ExplanationHTML string
	PotentialICDs   []ICDHint
}

func titleText(titles map[string]string, lang string) string {
	if t, ok := titles[lang]; ok && t != "" {
		return t
	}
	return titles["de"]
}
