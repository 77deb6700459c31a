package stage1

import (
	"github.com/arzttarif/tarifengine/internal/catalog"
	"github.com/arzttarif/tarifengine/pkg/codes"
)

// StructuredDemographics carries whatever the caller already knows about
// the patient from structured request fields — these always win over
// text extraction and model output (§4.4 step 5 reconciliation order).
type StructuredDemographics struct {
	Age        *int
	Gender     string
	Laterality string
}

// reconcile implements §4.4 steps 3-5: catalogue cross-check of every
// identified code (dropping unknowns, overwriting typ/description,
// coercing menge), merging literal codes the model missed, and
// demographic reconciliation in priority order structured > text >
// model.
func reconcile(store *catalog.Store, raw *rawResult, rawText string, structured StructuredDemographics) Result {
	result := Result{BegruendungLLM: raw.BegruendungLLM}

	seen := map[string]bool{}
	for _, item := range raw.IdentifiedLeistungen {
		lkn := codes.Canonical(item.LKN)
		details := store.CodeDetails(lkn)
		if details == nil {
			continue // §4.4 step 3: drop codes not present in the catalogue
		}
		menge := toInt(item.Menge, 1)
		if menge < 1 {
			menge = 1
		}
		result.IdentifiedLeistungen = append(result.IdentifiedLeistungen, IdentifiedService{
			LKN:   lkn,
			Typ:   string(details.Type), // model's typ is untrusted, overwrite from catalogue
			Menge: menge,
		})
		seen[lkn] = true
	}

	// §4.4 step 4: merge literal codes from the raw text the model missed.
	for _, lkn := range codes.ExtractLKNs(rawText) {
		if seen[lkn] {
			continue
		}
		details := store.CodeDetails(lkn)
		if details == nil {
			continue
		}
		result.IdentifiedLeistungen = append(result.IdentifiedLeistungen, IdentifiedService{
			LKN: lkn, Typ: string(details.Type), Menge: 1,
		})
		seen[lkn] = true
	}

	result.ExtractedInfo = ExtractedInfo{
		DauerMinuten:     toInt(raw.ExtractedInfo.DauerMinuten, 0),
		MengeAllgemein:   toInt(raw.ExtractedInfo.MengeAllgemein, 1),
		Alter:            toInt(raw.ExtractedInfo.Alter, 0),
		Geschlecht:       raw.ExtractedInfo.Geschlecht,
		Seitigkeit:       raw.ExtractedInfo.Seitigkeit,
		AnzahlProzeduren: toInt(raw.ExtractedInfo.AnzahlProzeduren, 1),
	}

	// Demographic reconciliation: structured input wins, then regex
	// extraction from the raw text, then whatever the model produced.
	if age := ExtractAge(rawText); age.Found {
		result.ExtractedInfo.Alter = age.Value
	}
	if structured.Age != nil {
		result.ExtractedInfo.Alter = *structured.Age
	}

	if gender, found := ExtractGender(rawText); found {
		result.ExtractedInfo.Geschlecht = gender
	}
	if structured.Gender != "" {
		result.ExtractedInfo.Geschlecht = structured.Gender
	}

	if structured.Laterality != "" {
		result.ExtractedInfo.Seitigkeit = structured.Laterality
	}

	return result
}
