package stage1

import "regexp"

// segmentSplitRe splits free text on "und"/"oder" (and their French/
// Italian/English equivalents), each segment then identified
// independently and the results merged. Grounded on hybrid_recognizer.py's
// `re.split(r'\s*\b(?:und|oder)\b\s*', text_lower)`.
var segmentSplitRe = regexp.MustCompile(`(?i)\s*\b(?:und|oder|et|ou|e|o|and|or)\b\s*`)

// SplitSegments splits text into independently-identifiable segments when
// it contains a conjunction the model tends to conflate into one
// (under-counted) service. A text with no conjunction returns a single
// segment (itself), so callers can always iterate uniformly.
func SplitSegments(text string) []string {
	parts := segmentSplitRe.Split(text, -1)
	if len(parts) <= 1 {
		return []string{text}
	}
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := trimPunct(p)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return []string{text}
	}
	return out
}

func trimPunct(s string) string {
	start, end := 0, len(s)
	for start < end && isTrimChar(s[start]) {
		start++
	}
	for end > start && isTrimChar(s[end-1]) {
		end--
	}
	return s[start:end]
}

func isTrimChar(b byte) bool {
	return b == ' ' || b == ',' || b == '.' || b == '\t' || b == '\n'
}
