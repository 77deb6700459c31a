package retrieval

import (
	"strings"
	"unicode"
)

// compoundPrefixes are the German directional/lateral prefixes §4.2 asks
// us to split off so a compound like "Oberarmfraktur" also yields its
// remainder "armfraktur" as an independent keyword.
var compoundPrefixes = []string{"links", "rechts", "ober", "unter", "innen", "aussen"}

// excludedCompounds are whole words that merely start with a prefix
// without being a genuine compound ("Untersuchung", "unterwegs" are not
// "unter" + "suchung"/"wegs" in any useful sense).
var excludedCompounds = map[string]bool{
	"untersuchung": true,
	"unterwegs":    true,
}

// stopwords are articles, prepositions, and pure laterality terms that
// carry no discriminative weight for retrieval.
var stopwords = map[string]bool{
	"der": true, "die": true, "das": true, "den": true, "dem": true, "des": true,
	"ein": true, "eine": true, "einer": true, "eines": true, "einem": true, "einen": true,
	"und": true, "oder": true, "mit": true, "von": true, "bei": true, "für": true,
	"le": true, "la": true, "les": true, "un": true, "une": true,
	"il": true, "lo": true, "gli": true, "una": true,
	"links": true, "rechts": true, "beidseits": true, "beidseitig": true, "bilateral": true,
}

// ExpandCompounds splits a token on a recognised prefix and returns the
// token itself plus, when a genuine split applies, the remainder. The
// original token is always first.
func ExpandCompounds(token string) []string {
	lower := strings.ToLower(token)
	if excludedCompounds[lower] {
		return []string{token}
	}
	for _, prefix := range compoundPrefixes {
		if strings.HasPrefix(lower, prefix) && len(lower) > len(prefix)+2 {
			remainder := token[len(prefix):]
			return []string{token, remainder}
		}
	}
	return []string{token}
}

// Keywords tokenises text, expands compounds, drops stopwords and tokens
// shorter than 4 characters, and lower-cases the result for scoring.
func Keywords(text string) []string {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	var out []string
	for _, f := range fields {
		for _, variant := range ExpandCompounds(f) {
			lower := strings.ToLower(variant)
			if len(lower) < 4 {
				continue
			}
			if stopwords[lower] {
				continue
			}
			out = append(out, lower)
		}
	}
	return out
}
