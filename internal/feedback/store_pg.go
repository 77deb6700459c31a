package feedback

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type pgStore struct {
	pool *pgxpool.Pool
}

// NewPGStore builds a Store backed by the `feedback` table (see
// migrations/001_feedback.sql), following the teacher's repo_pg.go
// shape: a thin struct wrapping *pgxpool.Pool with one method per
// operation and positional-parameter SQL.
func NewPGStore(pool *pgxpool.Pool) Store {
	return &pgStore{pool: pool}
}

func (s *pgStore) Save(ctx context.Context, r *Report) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	contextJSON, err := marshalContext(r.Context)
	if err != nil {
		return fmt.Errorf("marshal feedback context: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO feedback (id, input_text, rating, comment, context_json, github_issue_url)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		r.ID, r.InputText, r.Rating, r.Comment, jsonOrNil(contextJSON), nullIfEmpty(r.GitHubIssueURL))
	if err != nil {
		return fmt.Errorf("insert feedback: %w", err)
	}
	return nil
}

func jsonOrNil(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return json.RawMessage(b)
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
