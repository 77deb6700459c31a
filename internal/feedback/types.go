// Package feedback persists `/api/submit-feedback` reports and, when a
// GitHub repository is configured, opens an issue for them. Neither the
// storage schema nor the choice of backend is part of the decision
// engine proper (spec.md §6 Non-goals); this package is the ambient
// mechanism a deployer points at whichever backend it has configured.
package feedback

import (
	"time"

	"github.com/google/uuid"
)

// Report is one submitted feedback record.
type Report struct {
	ID             uuid.UUID
	InputText      string
	Rating         string // "correct" | "incorrect" | "partial"
	Comment        string
	Context        map[string]any // the analyze-billing request/response that prompted the report
	GitHubIssueURL string
	CreatedAt      time.Time
}
