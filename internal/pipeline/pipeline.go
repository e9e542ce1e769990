// Package pipeline implements the ingestion-and-rule-evaluation core: it
// parses one batch file, infers and enforces a schema, deduplicates and
// classifies records, evaluates the fraud rules, and hands accepted records
// plus derived alerts to the document store as one idempotent batch of
// upserts.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/dvnair/fraudsight/internal/detector"
	"github.com/dvnair/fraudsight/internal/domain"
	"github.com/dvnair/fraudsight/internal/logger"
)

// FileRef identifies one processable batch file. Source is optional; when
// empty the source is routed from the URI.
type FileRef struct {
	URI    string
	Source domain.SourceType
}

// Ingestor drives the per-batch pipeline. One Ingest call owns its batch
// end-to-end; Ingestor itself holds no per-batch state, so a single
// Ingestor may serve concurrent invocations.
type Ingestor struct {
	storage    Storage
	store      DocumentStore
	detector   *detector.Detector
	inferencer SchemaInferencer

	// optional collaborators
	profiles ProfileLookup
	runs     RunRecorder

	now func() time.Time
}

// Option configures optional Ingestor collaborators.
type Option func(*Ingestor)

// WithProfileLookup enables the geo-anomaly rule by providing read access
// to account profiles.
func WithProfileLookup(p ProfileLookup) Option {
	return func(ing *Ingestor) { ing.profiles = p }
}

// WithRunRecorder enables the ingest-run audit trail.
func WithRunRecorder(r RunRecorder) Option {
	return func(ing *Ingestor) { ing.runs = r }
}

// WithInferencer swaps the schema inference strategy.
func WithInferencer(s SchemaInferencer) Option {
	return func(ing *Ingestor) { ing.inferencer = s }
}

// NewIngestor wires the pipeline with its required collaborators.
func NewIngestor(storage Storage, store DocumentStore, det *detector.Detector, opts ...Option) *Ingestor {
	ing := &Ingestor{
		storage:    storage,
		store:      store,
		detector:   det,
		inferencer: ExemplarInferencer{},
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(ing)
	}
	return ing
}

// Ingest processes one batch file end-to-end and reports what happened.
// Top-level malformation aborts with no writes; per-record failures only
// drop that record. Re-running the same file produces the same persisted
// ids, so redelivery is safe.
func (ing *Ingestor) Ingest(ctx context.Context, ref FileRef) (*domain.IngestReport, error) {
	log := logger.FromContext(ctx)

	source := ref.Source
	if source == "" {
		source = RouteSource(ref.URI)
	}
	format := DetectFormat(ref.URI)

	report := &domain.IngestReport{
		URI:    ref.URI,
		Source: source,
		Format: format,
	}

	if ing.runs != nil {
		runID, err := ing.runs.StartRun(ctx, ref.URI, source, format)
		if err != nil {
			// The audit trail is advisory; a recording failure must not
			// block ingestion.
			log.Warn().Err(err).Str("file_uri", ref.URI).Msg("could not record run start")
		}
		report.RunID = runID
	}

	raw, err := ing.storage.FetchObject(ctx, ref.URI)
	if err != nil {
		err = fmt.Errorf("Ingest: fetching %s: %w", ref.URI, err)
		ing.failRun(ctx, report.RunID, err)
		return nil, err
	}

	records, fieldOrder, err := parseBatch(raw, format)
	if err != nil {
		err = fmt.Errorf("Ingest: parsing %s: %w", ref.URI, err)
		ing.failRun(ctx, report.RunID, err)
		return nil, err
	}
	report.Parsed = len(records)

	schema := ing.inferencer.Infer(records[0], fieldOrder)

	accepted := ing.acceptRecords(ctx, records, schema, source, report)
	report.Accepted = len(accepted)
	alerts := ing.evaluateRules(ctx, accepted, source)
	report.AlertsStaged = len(alerts)
	report.Alerts = alerts

	upserts := ing.stageUpserts(accepted, alerts, source)
	if err := ing.store.Apply(ctx, upserts); err != nil {
		err = fmt.Errorf("Ingest: persisting %s: %w", ref.URI, err)
		ing.failRun(ctx, report.RunID, err)
		return nil, err
	}

	if ing.runs != nil && report.RunID != "" {
		if err := ing.runs.FinishRun(ctx, report.RunID, report); err != nil {
			log.Warn().Err(err).Str("run_id", report.RunID).Msg("could not record run finish")
		}
	}

	log.Info().
		Str("file_uri", ref.URI).
		Str("source", string(source)).
		Int("parsed", report.Parsed).
		Int("accepted", report.Accepted).
		Int("alerts", report.AlertsStaged).
		Msg("batch ingested")

	return report, nil
}

// acceptRecords runs dedupe, validation and classification over the parsed
// batch. Rejected records are dropped and counted, never fatal.
func (ing *Ingestor) acceptRecords(ctx context.Context, records []domain.Record, schema domain.Schema, source domain.SourceType, report *domain.IngestReport) []domain.Record {
	log := logger.FromContext(ctx)
	dedupe := newDeduper()

	accepted := make([]domain.Record, 0, len(records))
	for _, rec := range records {
		key := naturalKey(rec, source)
		if key == "" {
			// No natural key means no stable document id; the record cannot
			// be persisted, so it counts as invalid rather than duplicate.
			report.DroppedInvalid++
			log.Debug().Msg("record rejected: no natural key")
			continue
		}
		if dedupe.observe(key) {
			report.DroppedDuplicate++
			continue
		}

		if err := ValidateRecord(rec, schema); err != nil {
			report.DroppedInvalid++
			log.Debug().Err(err).Str("record_key", key).Msg("record rejected")
			continue
		}

		rec.SetID(key)
		if source.IsTransaction() {
			rec = Classify(rec, source)
		}
		accepted = append(accepted, rec)
	}

	return accepted
}

// evaluateRules runs the per-record and batch detectors over the accepted
// set. Inconclusive verdicts are logged and stage nothing.
func (ing *Ingestor) evaluateRules(ctx context.Context, accepted []domain.Record, source domain.SourceType) []domain.Alert {
	log := logger.FromContext(ctx)

	var alerts []domain.Alert
	if source.IsTransaction() {
		for _, rec := range accepted {
			switch v := ing.detector.HighValue(rec); v.Status {
			case detector.StatusFlagged:
				amount, _ := rec.NumberField(domain.FieldAmount)
				alerts = append(alerts, domain.HighValueAlert{
					RecordID:  rec.ID(),
					AccountID: rec.StringField(domain.FieldAccountNumber),
					Amount:    amount,
					Details:   rec,
				})
			case detector.StatusInconclusive:
				log.Warn().Str("record_id", rec.ID()).Str("reason", v.Reason).Msg("high-value rule inconclusive")
			}

			if ing.profiles != nil {
				if alert, ok := ing.geoCheck(ctx, rec); ok {
					alerts = append(alerts, alert)
				}
			}
		}
	}

	if source == domain.SourceATM {
		for _, a := range ing.detector.RapidWithdrawals(accepted) {
			alerts = append(alerts, a)
		}
	}

	return alerts
}

// geoCheck evaluates the geo-anomaly rule for one record. Lookup failures
// and inconclusive verdicts are logged and swallowed: the rule is
// best-effort and never fails the batch.
func (ing *Ingestor) geoCheck(ctx context.Context, rec domain.Record) (domain.Alert, bool) {
	log := logger.FromContext(ctx)

	customerID := rec.StringField(domain.FieldCustomerID)
	if customerID == "" {
		return nil, false
	}

	profile, err := ing.profiles.ProfileByID(ctx, customerID)
	if err != nil {
		log.Warn().Err(err).Str("customer_id", customerID).Msg("profile lookup failed, skipping geo check")
		return nil, false
	}

	v := ing.detector.GeoAnomaly(rec, profile)
	switch v.Status {
	case detector.StatusFlagged:
		return domain.GeoAnomalyAlert{
			TransactionID:     rec.ID(),
			CustomerID:        customerID,
			DistanceKm:        v.DistanceKm,
			LastKnownLocation: profile.LastKnownLocation,
			EventLocation:     rec.StringField(domain.FieldGeoLocation),
		}, true
	case detector.StatusInconclusive:
		log.Debug().Str("record_id", rec.ID()).Str("reason", v.Reason).Msg("geo-anomaly rule inconclusive")
	}
	return nil, false
}

// stageUpserts builds the single persistence handoff: accepted transaction
// records into their source container, the normalized profile projection for
// customer batches, and alerts into the shared alert container. Each
// container/id pair appears at most once.
func (ing *Ingestor) stageUpserts(accepted []domain.Record, alerts []domain.Alert, source domain.SourceType) []Upsert {
	upserts := make([]Upsert, 0, len(accepted)+len(alerts))

	if source == domain.SourceCustomers {
		// Customer batches persist only the normalized projection. Staging
		// the raw record too would put the same document id twice into one
		// handoff, and the store gives no ordering guarantee between writes
		// to the same document.
		createdAt := ing.now().UTC().Format(time.RFC3339)
		for _, rec := range accepted {
			customerID := rec.StringField(domain.FieldCustomerID)
			upserts = append(upserts, Upsert{
				Container: ContainerAccountProfile,
				ID:        customerID,
				Doc: map[string]any{
					"id":                   customerID,
					domain.FieldCustomerID: customerID,
					domain.FieldName:       rec.StringField(domain.FieldName),
					domain.FieldPhone:      rec.StringField(domain.FieldPhone),
					domain.FieldEmail:      rec.StringField(domain.FieldEmail),
					"CreatedAt":            createdAt,
				},
			})
		}
	} else {
		container := containerForSource[source]
		for _, rec := range accepted {
			upserts = append(upserts, Upsert{
				Container: container,
				ID:        rec.ID(),
				Doc:       map[string]any(rec),
			})
		}
	}

	for _, alert := range alerts {
		upserts = append(upserts, Upsert{
			Container: ContainerFraudAlerts,
			ID:        alert.AlertID(),
			Doc:       alert.Doc(),
		})
	}

	return upserts
}

func (ing *Ingestor) failRun(ctx context.Context, runID string, err error) {
	if ing.runs != nil && runID != "" {
		ing.runs.FailRun(ctx, runID, err)
	}
}
