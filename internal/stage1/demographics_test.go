package stage1

import "testing"

func TestExtractAge_ComparatorWords(t *testing.T) {
	cases := map[string]struct {
		cmp   string
		value int
	}{
		"Patient unter 18 Jahren":     {"<", 18},
		"Patientin ab 65 Jahre alt":   {">=", 65},
		"Kinder über 12 Jahre":        {">", 12},
		"eine 42-jährige Patientin":   {"=", 42},
		"Patient, 7 Jahre":            {"=", 7},
	}
	for text, want := range cases {
		got := ExtractAge(text)
		if !got.Found {
			t.Errorf("ExtractAge(%q): expected match", text)
			continue
		}
		if got.Comparator != want.cmp || got.Value != want.value {
			t.Errorf("ExtractAge(%q) = %+v, want {%s %d}", text, got, want.cmp, want.value)
		}
	}
}

func TestExtractAge_NoMatch(t *testing.T) {
	if got := ExtractAge("keine Altersangabe hier"); got.Found {
		t.Errorf("expected no match, got %+v", got)
	}
}

func TestExtractGender_Lexicon(t *testing.T) {
	cases := map[string]string{
		"die Patientin klagt über Schmerzen": "weiblich",
		"der Patient wurde behandelt":        "männlich",
		"une patiente se présente":           "weiblich",
		"un homme de 50 ans":                 "männlich",
		"a female patient":                   "weiblich",
	}
	for text, want := range cases {
		got, found := ExtractGender(text)
		if !found {
			t.Errorf("ExtractGender(%q): expected a match", text)
			continue
		}
		if got != want {
			t.Errorf("ExtractGender(%q) = %q, want %q", text, got, want)
		}
	}
}

func TestExtractGender_PatientinWinsOverPatient(t *testing.T) {
	got, found := ExtractGender("Die Patientin ist eine gesetzliche Patient-Vertreterin")
	if !found || got != "weiblich" {
		t.Errorf("expected patientin to win, got %q found=%v", got, found)
	}
}
