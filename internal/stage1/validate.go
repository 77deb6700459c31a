package stage1

import (
	"encoding/json"
	"fmt"
)

// parseRaw decodes the extracted JSON object, surfacing a ParseError (not
// a generic decode error) so the orchestrator can treat it uniformly.
func parseRaw(jsonText string) (*rawResult, error) {
	var raw rawResult
	if err := json.Unmarshal([]byte(jsonText), &raw); err != nil {
		return nil, &ParseError{Raw: jsonText, Reason: fmt.Sprintf("invalid json: %v", err)}
	}
	return &raw, nil
}

// toInt coerces a JSON number/string into an int, defaulting to def on
// any shape the model got wrong (model output is untrusted per §4.4
// step 3 — coercion, not rejection).
func toInt(v interface{}, def int) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case string:
		var i int
		if _, err := fmt.Sscanf(n, "%d", &i); err == nil {
			return i
		}
	}
	return def
}
