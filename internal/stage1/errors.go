package stage1

import "fmt"

// ParseError surfaces to the orchestrator when the model's response
// could not be turned into valid JSON after both parse attempts (the
// first fenced code block, then the raw text) per §4.4's failure modes.
type ParseError struct {
	Raw    string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("stage1: could not parse model output: %s", e.Reason)
}
