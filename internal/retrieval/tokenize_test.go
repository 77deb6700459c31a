package retrieval

import "testing"

func TestExpandCompounds_SplitsRecognisedPrefix(t *testing.T) {
	got := ExpandCompounds("Oberarmfraktur")
	want := []string{"Oberarmfraktur", "armfraktur"}
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("ExpandCompounds(Oberarmfraktur) = %v, want %v", got, want)
	}
}

func TestExpandCompounds_ExcludesFalsePositive(t *testing.T) {
	got := ExpandCompounds("Untersuchung")
	if len(got) != 1 || got[0] != "Untersuchung" {
		t.Errorf("expected Untersuchung not to split, got %v", got)
	}
}

func TestKeywords_DropsStopwordsAndShortTokens(t *testing.T) {
	got := Keywords("Der Patient hat eine Oberarmfraktur und Schmerzen")
	for _, tok := range got {
		if stopwords[tok] {
			t.Errorf("unexpected stopword %q in keywords", tok)
		}
		if len(tok) < 4 {
			t.Errorf("unexpected short token %q in keywords", tok)
		}
	}
	foundFraktur := false
	for _, tok := range got {
		if tok == "armfraktur" {
			foundFraktur = true
		}
	}
	if !foundFraktur {
		t.Errorf("expected compound split 'armfraktur' among keywords, got %v", got)
	}
}
