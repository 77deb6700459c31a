// Package codes validates and canonicalises the two external code formats
// this system understands: TARDOC service codes (LKN) and Pauschale
// (package) codes. Case is irrelevant for code equality everywhere (I5);
// canonicalisation always upper-cases.
package codes

import "regexp"

// LKNPattern matches a TARDOC service code, e.g. "CA.00.0010".
var LKNPattern = regexp.MustCompile(`^[A-Z][A-Z0-9]{1,2}\.[A-Z0-9]{2}\.[0-9]{4}$`)

// PauschalePattern matches a package code, e.g. "C08.50E". The base family
// is the code without its trailing letter (see BaseFamily).
var PauschalePattern = regexp.MustCompile(`^[A-Z0-9.]+[A-Z]$`)

// BaseFamilyPattern matches the leading alphanumeric-and-dot run of a code;
// BaseFamily strips the trailing letter of a package code and falls back to
// this run for anything else.
var BaseFamilyPattern = regexp.MustCompile(`^[A-Z0-9.]+`)

// lknLoose is used to extract literal LKN-shaped substrings from free text
// (case-insensitive, since raw text may use any case).
var lknLoose = regexp.MustCompile(`(?i)\b[A-Z][A-Z0-9]{1,2}\.[A-Z0-9]{2}\.[0-9]{4}\b`)

// IsLKN reports whether s is a well-formed LKN after canonicalisation.
func IsLKN(s string) bool {
	return LKNPattern.MatchString(Canonical(s))
}

// IsPauschale reports whether s is a well-formed package code after
// canonicalisation.
func IsPauschale(s string) bool {
	return PauschalePattern.MatchString(Canonical(s))
}

// Canonical upper-cases a code for comparison/storage. All catalogue keys,
// condition atoms, and request fields pass through this before use.
func Canonical(s string) string {
	return toUpperASCII(s)
}

// BaseFamily returns the base family of a package code ("C08.50E" -> "C08.50").
func BaseFamily(pauschaleCode string) string {
	c := Canonical(pauschaleCode)
	if PauschalePattern.MatchString(c) {
		return c[:len(c)-1]
	}
	return BaseFamilyPattern.FindString(c)
}

// ExtractLKNs scans free text for literal LKN-shaped substrings and returns
// their canonical forms, deduplicated, in order of first appearance.
func ExtractLKNs(text string) []string {
	matches := lknLoose.FindAllString(text, -1)
	seen := make(map[string]bool, len(matches))
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		c := Canonical(m)
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	return out
}

func toUpperASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'a' && c <= 'z' {
			b[i] = c - ('a' - 'A')
		}
	}
	return string(b)
}
