package catalog

import (
	"path/filepath"
	"testing"
)

func openTestSynonymStore(t *testing.T) *SynonymStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "synonyms.db")
	s, err := OpenSynonymStore(path)
	if err != nil {
		t.Fatalf("OpenSynonymStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSynonymStore_PutAndExpand(t *testing.T) {
	s := openTestSynonymStore(t)

	if err := s.Put("konsultation", []string{"Sprechstunde", "Beratung Hausarzt"}, []string{"ca.00.0010"}); err != nil {
		t.Fatalf("Put: %v", err)
	}

	lkns, err := s.ExpandTerm("Sprechstunde")
	if err != nil {
		t.Fatalf("ExpandTerm: %v", err)
	}
	if len(lkns) != 1 || lkns[0] != "CA.00.0010" {
		t.Fatalf("expected [CA.00.0010], got %v", lkns)
	}

	lkns, err = s.ExpandTerm("beratung hausarzt")
	if err != nil {
		t.Fatalf("ExpandTerm: %v", err)
	}
	if len(lkns) != 1 || lkns[0] != "CA.00.0010" {
		t.Fatalf("expected case/whitespace-normalised match, got %v", lkns)
	}
}

func TestSynonymStore_ExpandTerm_Unknown(t *testing.T) {
	s := openTestSynonymStore(t)
	lkns, err := s.ExpandTerm("nonexistent")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(lkns) != 0 {
		t.Fatalf("expected no matches, got %v", lkns)
	}
}

func TestSynonymStore_BaseTermsFor_PunctuationVariant(t *testing.T) {
	s := openTestSynonymStore(t)
	if err := s.Put("ober-arm", []string{"Ober/Arm Fraktur"}, []string{"XA.10.0010"}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	bases, err := s.BaseTermsFor("ober arm fraktur")
	if err != nil {
		t.Fatalf("BaseTermsFor: %v", err)
	}
	if len(bases) != 1 || bases[0] != "ober-arm" {
		t.Fatalf("expected punctuation-stripped variant to resolve, got %v", bases)
	}
}
