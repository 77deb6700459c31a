package feedback

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/go-github/v69/github"
)

// IssueReporter opens a tracking issue for a feedback report. Reports
// with Rating == "correct" are not filed (only disagreements are worth
// an operator's attention).
type IssueReporter interface {
	Report(ctx context.Context, r *Report) (issueURL string, err error)
}

// NoopReporter files nothing, used when no GitHub repository is
// configured.
type NoopReporter struct{}

func (NoopReporter) Report(ctx context.Context, r *Report) (string, error) { return "", nil }

type githubReporter struct {
	client *github.Client
	owner  string
	repo   string
}

// NewGitHubReporter builds an IssueReporter against ownerRepo ("owner/name")
// authenticated with token.
func NewGitHubReporter(token, ownerRepo string) (IssueReporter, error) {
	owner, repo, ok := strings.Cut(ownerRepo, "/")
	if !ok {
		return nil, fmt.Errorf("github feedback repo must be \"owner/name\", got %q", ownerRepo)
	}
	client := github.NewClient(nil).WithAuthToken(token)
	return &githubReporter{client: client, owner: owner, repo: repo}, nil
}

func (g *githubReporter) Report(ctx context.Context, r *Report) (string, error) {
	if r.Rating == "correct" {
		return "", nil
	}
	title := fmt.Sprintf("Tariff feedback: %s", r.Rating)
	body := fmt.Sprintf("**Rating:** %s\n\n**Input text:**\n```\n%s\n```\n\n**Comment:**\n%s\n",
		r.Rating, r.InputText, r.Comment)
	issue, _, err := g.client.Issues.Create(ctx, g.owner, g.repo, &github.IssueRequest{
		Title:  &title,
		Body:   &body,
		Labels: &[]string{"tariff-feedback"},
	})
	if err != nil {
		return "", fmt.Errorf("create github issue: %w", err)
	}
	return issue.GetHTMLURL(), nil
}
