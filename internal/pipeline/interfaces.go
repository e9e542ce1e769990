package pipeline

import (
	"context"

	"github.com/dvnair/fraudsight/internal/domain"
)

// Storage retrieves raw batch file bytes given a location handle.
type Storage interface {
	FetchObject(ctx context.Context, uri string) ([]byte, error)
}

// Upsert is one insert-or-replace write against a named logical container,
// keyed by ID. Same id + same content must not produce a duplicate.
type Upsert struct {
	Container string
	ID        string
	Doc       map[string]any
}

// DocumentStore applies the batch's staged upserts in one handoff. The
// pipeline calls Apply exactly once per invocation, after all rule
// evaluation, so an aborted invocation never leaves partial writes.
type DocumentStore interface {
	Apply(ctx context.Context, upserts []Upsert) error
}

// ProfileLookup resolves an account profile by customer id for the
// geo-anomaly rule. A nil profile with nil error means "not found"; the
// rule then reports inconclusive. Implementations must be read-only.
type ProfileLookup interface {
	ProfileByID(ctx context.Context, customerID string) (*domain.AccountProfile, error)
}

// RunRecorder tracks the lifecycle of one ingestion invocation in the audit
// trail. Recording failures are logged, never fatal.
type RunRecorder interface {
	StartRun(ctx context.Context, uri string, source domain.SourceType, format string) (string, error)
	FinishRun(ctx context.Context, runID string, report *domain.IngestReport) error
	FailRun(ctx context.Context, runID string, runErr error)
}
