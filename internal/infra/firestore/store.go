// Package firestore implements the document-store collaborator: idempotent
// upserts keyed by document id against the operational collections
// (ATMTransactions, UPIEvents, AccountProfile, FraudAlerts).
package firestore

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"

	"github.com/dvnair/fraudsight/internal/domain"
	"github.com/dvnair/fraudsight/internal/pipeline"
)

// Store holds a shared Firestore client. Safe for concurrent use.
type Store struct {
	client *firestore.Client
}

// NewStore connects to the given Firestore database.
func NewStore(ctx context.Context, projectID, database string) (*Store, error) {
	client, err := firestore.NewClientWithDatabase(ctx, projectID, database)
	if err != nil {
		return nil, fmt.Errorf("NewStore: creating firestore client: %w", err)
	}
	return &Store{client: client}, nil
}

// Close releases the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}

// Apply writes the batch's staged upserts through a BulkWriter. Each write
// is a full-document Set keyed by id, so redelivered batches overwrite
// instead of duplicating.
func (s *Store) Apply(ctx context.Context, upserts []pipeline.Upsert) error {
	bw := s.client.BulkWriter(ctx)

	jobs := make([]*firestore.BulkWriterJob, 0, len(upserts))
	for _, u := range upserts {
		ref := s.client.Collection(u.Container).Doc(u.ID)
		job, err := bw.Set(ref, u.Doc)
		if err != nil {
			bw.End()
			return fmt.Errorf("Apply: staging %s/%s: %w", u.Container, u.ID, err)
		}
		jobs = append(jobs, job)
	}
	bw.End()

	for i, job := range jobs {
		if _, err := job.Results(); err != nil {
			return fmt.Errorf("Apply: writing %s/%s: %w", upserts[i].Container, upserts[i].ID, err)
		}
	}
	return nil
}

// ProfileByID reads one account profile. A missing document is not an
// error; the geo-anomaly rule treats it as inconclusive.
func (s *Store) ProfileByID(ctx context.Context, customerID string) (*domain.AccountProfile, error) {
	snap, err := s.client.Collection(pipeline.ContainerAccountProfile).Doc(customerID).Get(ctx)
	if snap != nil && !snap.Exists() {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ProfileByID: reading profile %s: %w", customerID, err)
	}

	data := snap.Data()
	return &domain.AccountProfile{
		CustomerID:        customerID,
		Name:              stringField(data, domain.FieldName),
		Phone:             stringField(data, domain.FieldPhone),
		Email:             stringField(data, domain.FieldEmail),
		LastKnownLocation: stringField(data, "LastKnownLocation"),
	}, nil
}

// SetAlertSummary merges an analyst summary into an existing alert
// document without touching the detector-written fields.
func (s *Store) SetAlertSummary(ctx context.Context, alertID, summary string) error {
	ref := s.client.Collection(pipeline.ContainerFraudAlerts).Doc(alertID)
	if _, err := ref.Set(ctx, map[string]any{"Summary": summary}, firestore.MergeAll); err != nil {
		return fmt.Errorf("SetAlertSummary: merging summary into %s: %w", alertID, err)
	}
	return nil
}

func stringField(data map[string]any, key string) string {
	if v, ok := data[key].(string); ok {
		return v
	}
	return ""
}

// Interface checks against the pipeline contracts.
var (
	_ pipeline.DocumentStore = (*Store)(nil)
	_ pipeline.ProfileLookup = (*Store)(nil)
)
