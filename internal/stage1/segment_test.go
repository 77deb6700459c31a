package stage1

import "testing"

func TestSplitSegments_NoConjunction(t *testing.T) {
	got := SplitSegments("Konsultation 10 Minuten")
	if len(got) != 1 || got[0] != "Konsultation 10 Minuten" {
		t.Errorf("got %v", got)
	}
}

func TestSplitSegments_SplitsOnUndOder(t *testing.T) {
	got := SplitSegments("Röntgen Thorax und Konsultation 15 Minuten")
	want := []string{"Röntgen Thorax", "Konsultation 15 Minuten"}
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestSplitSegments_TrimsPunctuation(t *testing.T) {
	got := SplitSegments("Leistung A, oder Leistung B.")
	if len(got) != 2 || got[0] != "Leistung A" || got[1] != "Leistung B" {
		t.Errorf("got %v", got)
	}
}
