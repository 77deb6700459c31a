package stage1

import (
	"regexp"
	"strconv"
	"strings"
)

// ageComparatorRe recognises a German comparator word or a symbolic
// comparator immediately preceding/following a number and the word for
// "years", per §4.4 step 5: "unter/bis/ab/über and symbolic
// <,<=,=,>=,>". Grounded in shape on hybrid_recognizer.py's simpler
// "(\d+)[\s-]*(?:jährige|jahre|jahr|j\.)" age match, extended with the
// comparator vocabulary the spec calls out explicitly.
var ageComparatorRe = regexp.MustCompile(
	`(?i)(unter|bis|ab|über|<=|>=|<|>|=)?\s*(\d+)\s*[\s-]*(?:jährig\w*|jahr\w*|j\.|ans?|anni|anno)`,
)

// AgeExtraction is a recognised age constraint.
type AgeExtraction struct {
	Comparator string // "<", "<=", "=", ">=", ">" (normalised from words)
	Value      int
	Found      bool
}

// ExtractAge scans text for an age expression and normalises the leading
// comparator word to its symbolic form.
func ExtractAge(text string) AgeExtraction {
	m := ageComparatorRe.FindStringSubmatch(text)
	if m == nil {
		return AgeExtraction{}
	}
	value, err := strconv.Atoi(m[2])
	if err != nil {
		return AgeExtraction{}
	}
	return AgeExtraction{Comparator: normalizeComparatorWord(m[1]), Value: value, Found: true}
}

func normalizeComparatorWord(word string) string {
	switch strings.ToLower(word) {
	case "unter", "bis", "<":
		return "<"
	case "ab", ">=":
		return ">="
	case "über", ">":
		return ">"
	case "<=":
		return "<="
	case "=", "":
		return "="
	default:
		return "="
	}
}

// genderLexicon maps gender terms across German, French, Italian, and
// English onto the canonical "männlich"/"weiblich" values the rule
// engine and condition evaluator compare against (§3 Patient(Geschlecht)
// is compared case-insensitively, but extraction still needs one
// canonical spelling per gender to compare against).
var genderLexicon = map[string]string{
	// German
	"frau": "weiblich", "patientin": "weiblich", "weiblich": "weiblich",
	"mann": "männlich", "patient": "männlich", "männlich": "männlich",
	// French
	"femme": "weiblich", "patiente": "weiblich", "féminin": "weiblich",
	"homme": "männlich", "masculin": "männlich",
	// Italian
	"donna": "weiblich", "paziente femmina": "weiblich", "femminile": "weiblich",
	"uomo": "männlich", "maschile": "männlich",
	// English
	"woman": "weiblich", "female": "weiblich",
	"man": "männlich", "male": "männlich",
}

var genderWordRe = regexp.MustCompile(`(?i)\b[a-zà-ÿ]+\b`)

// ExtractGender scans text word-by-word for a known gender term. "patient"
// (masculine by default in German clinical writing) only wins if
// "patientin" is not also present, mirroring hybrid_recognizer.py's
// male/female disambiguation.
func ExtractGender(text string) (gender string, found bool) {
	lower := strings.ToLower(text)
	if strings.Contains(lower, "patientin") {
		return "weiblich", true
	}
	for _, word := range genderWordRe.FindAllString(lower, -1) {
		if g, ok := genderLexicon[word]; ok {
			return g, true
		}
	}
	return "", false
}
