package orchestrator

// InputValidationError is §7 taxonomy class (1): bad JSON or a missing
// inputText field. The HTTP layer maps this to a 4xx response.
type InputValidationError struct {
	Message string
}

func (e *InputValidationError) Error() string { return e.Message }
