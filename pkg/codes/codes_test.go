package codes

import (
	"reflect"
	"testing"
)

func TestIsLKN(t *testing.T) {
	cases := map[string]bool{
		"CA.00.0010": true,
		"ca.00.0010": true,
		"WA.10.0010": true,
		"C.00.0010":  false,
		"CA.00.001":  false,
		"CA000010":   false,
	}
	for in, want := range cases {
		if got := IsLKN(in); got != want {
			t.Errorf("IsLKN(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestIsPauschale(t *testing.T) {
	if !IsPauschale("C08.50E") {
		t.Error("expected C08.50E to be a valid package code")
	}
	if !IsPauschale("c08.50e") {
		t.Error("expected case-insensitive match")
	}
	if IsPauschale("C08.50") {
		t.Error("expected trailing-letter-less code to be rejected")
	}
}

func TestBaseFamily(t *testing.T) {
	if got := BaseFamily("C08.50E"); got != "C08.50" {
		t.Errorf("BaseFamily(C08.50E) = %q, want C08.50", got)
	}
}

func TestCanonical(t *testing.T) {
	if Canonical("ca.00.0010") != "CA.00.0010" {
		t.Error("expected upper-casing")
	}
}

func TestExtractLKNs(t *testing.T) {
	text := "Bitte CA.00.0010 und ca.00.0010 sowie WA.10.0010 prüfen."
	got := ExtractLKNs(text)
	want := []string{"CA.00.0010", "WA.10.0010"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ExtractLKNs = %v, want %v (dedup + order preserved)", got, want)
	}
}
