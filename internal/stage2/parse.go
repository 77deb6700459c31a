package stage2

import (
	"encoding/json"
	"strings"

	"github.com/arzttarif/tarifengine/pkg/codes"
)

// parseCodeList tolerates the three response shapes §4.5/§4.9 calls out
// for Stage-2: a bare comma-separated list, a JSON array, or a JSON
// object `{EQUIVALENT_LKNS:[...]}`. Every code is canonicalised; when
// valid is non-nil, codes absent from it are discarded (§4.5 "Any
// returned code not in the candidate set is discarded").
func parseCodeList(response string, valid map[string]bool) []string {
	response = strings.TrimSpace(response)
	if response == "" {
		return nil
	}

	var raw []string
	switch {
	case looksLikeJSONObject(response):
		var obj struct {
			EquivalentLKNs []string `json:"EQUIVALENT_LKNS"`
		}
		if err := json.Unmarshal([]byte(response), &obj); err == nil {
			raw = obj.EquivalentLKNs
		}
	case looksLikeJSONArray(response):
		var arr []string
		if err := json.Unmarshal([]byte(response), &arr); err == nil {
			raw = arr
		}
	}
	if raw == nil {
		raw = strings.Split(response, ",")
	}

	seen := map[string]bool{}
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		code := codes.Canonical(strings.TrimSpace(r))
		if code == "" || seen[code] {
			continue
		}
		if valid != nil && !valid[code] {
			continue
		}
		seen[code] = true
		out = append(out, code)
	}
	return out
}

// isNoneResponse reports the Stage-2 ranking sentinel: "NONE" means fall
// back to deterministic order (§4.5).
func isNoneResponse(response string) bool {
	return strings.EqualFold(strings.TrimSpace(response), "NONE")
}

func looksLikeJSONObject(s string) bool {
	return strings.HasPrefix(s, "{")
}

func looksLikeJSONArray(s string) bool {
	return strings.HasPrefix(s, "[")
}
