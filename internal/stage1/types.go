// Package stage1 identifies candidate service codes from free text (C4):
// it prompts the LLM gateway with a bounded catalogue context, parses and
// validates the model's JSON, cross-checks every code against the
// catalogue, and reconciles patient demographics from structured input,
// regex extraction, and the model's own output.
package stage1

// IdentifiedService is one LKN the model, or the literal-code scan of the
// input text, surfaced, after catalogue cross-check.
type IdentifiedService struct {
	LKN   string `json:"lkn"`
	Typ   string `json:"typ"`
	Menge int    `json:"menge"`
}

// ExtractedInfo is the model's own view of patient/procedure context,
// always reconciled against independent regex extraction and any
// structured input the caller already supplied (§4.4 step 5).
type ExtractedInfo struct {
	DauerMinuten     int    `json:"dauer_minuten"`
	MengeAllgemein   int    `json:"menge_allgemein"`
	Alter            int    `json:"alter"`
	Geschlecht       string `json:"geschlecht"`
	Seitigkeit       string `json:"seitigkeit"`
	AnzahlProzeduren int    `json:"anzahl_prozeduren"`
}

// Result is the parsed, validated, catalogue-reconciled output of C4.
type Result struct {
	IdentifiedLeistungen []IdentifiedService `json:"identified_leistungen"`
	ExtractedInfo        ExtractedInfo       `json:"extracted_info"`
	BegruendungLLM       string              `json:"begruendung_llm"`
}

// rawResult is the wire shape the prompt asks the model to emit, decoded
// before catalogue validation/coercion.
type rawResult struct {
	IdentifiedLeistungen []struct {
		LKN   string      `json:"lkn"`
		Typ   string      `json:"typ"`
		Menge interface{} `json:"menge"`
	} `json:"identified_leistungen"`
	ExtractedInfo struct {
		DauerMinuten     interface{} `json:"dauer_minuten"`
		MengeAllgemein   interface{} `json:"menge_allgemein"`
		Alter            interface{} `json:"alter"`
		Geschlecht       string      `json:"geschlecht"`
		Seitigkeit       string      `json:"seitigkeit"`
		AnzahlProzeduren interface{} `json:"anzahl_prozeduren"`
	} `json:"extracted_info"`
	BegruendungLLM string `json:"begruendung_llm"`
}
