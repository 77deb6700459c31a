package feedback

import (
	"context"
	"encoding/json"
)

// Store persists feedback reports. The Postgres implementation is the
// only one shipped; a deployer without a configured DATABASE_URL runs
// with a no-op store instead (§6 feedback persistence is ambient
// infrastructure, not a required backend).
type Store interface {
	Save(ctx context.Context, r *Report) error
}

// NoopStore discards every report, used when no DATABASE_URL is
// configured.
type NoopStore struct{}

func (NoopStore) Save(ctx context.Context, r *Report) error { return nil }

func marshalContext(ctx map[string]any) ([]byte, error) {
	if ctx == nil {
		return nil, nil
	}
	return json.Marshal(ctx)
}
