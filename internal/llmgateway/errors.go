package llmgateway

import "strings"

// apiError is the typical OpenAI-compatible error envelope:
// {"error": {"code": ..., "param": ..., "message": ...}}.
type apiError struct {
	StatusCode int
	Code       string
	Param      string
	Message    string
	raw        string
}

func (e *apiError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.raw
}

// unsupportedParam reports whether e is a 400 naming param as unsupported
// or invalid, matching either the structured code/param fields or a
// message substring fallback — both paths the original wrapper used,
// since not every OpenAI-compatible clone returns structured errors.
func (e *apiError) unsupportedParam(param string) bool {
	if e.StatusCode != 400 {
		return false
	}
	if e.Param == param && (e.Code == "unsupported_value" || e.Code == "invalid_request_error") {
		return true
	}
	msg := strings.ToLower(e.Message + " " + e.raw)
	return strings.Contains(msg, strings.ToLower(param)) &&
		(strings.Contains(msg, "unsupported") || strings.Contains(msg, "invalid") || strings.Contains(msg, "only the default"))
}
