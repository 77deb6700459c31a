package feedback

import "context"

// Service is the `/api/submit-feedback` entry point: it persists the
// report, optionally files a GitHub issue for it, and records the
// resulting issue URL alongside the stored report.
type Service struct {
	store    Store
	reporter IssueReporter
}

// NewService wires a Store and IssueReporter together.
func NewService(store Store, reporter IssueReporter) *Service {
	if store == nil {
		store = NoopStore{}
	}
	if reporter == nil {
		reporter = NoopReporter{}
	}
	return &Service{store: store, reporter: reporter}
}

// Submit files r's GitHub issue (if configured), persists it, and
// returns the stored report.
func (s *Service) Submit(ctx context.Context, r *Report) (*Report, error) {
	issueURL, err := s.reporter.Report(ctx, r)
	if err != nil {
		// A failed issue filing must not lose the feedback itself.
		issueURL = ""
	}
	r.GitHubIssueURL = issueURL
	if err := s.store.Save(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}
