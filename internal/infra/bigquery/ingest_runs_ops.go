package bigquery

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/google/uuid"

	"github.com/dvnair/fraudsight/internal/domain"
	"github.com/dvnair/fraudsight/internal/logger"
	"github.com/dvnair/fraudsight/internal/pipeline"
)

// Runs records ingest-run lifecycle rows against a single dataset using a
// shared BigQuery client. It implements pipeline.RunRecorder.
type Runs struct {
	client  *bigquery.Client
	dataset string
}

var _ pipeline.RunRecorder = (*Runs)(nil)

// NewRuns creates a run recorder writing to projectID's dataset.
func NewRuns(ctx context.Context, projectID, dataset string) (*Runs, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("NewRuns: bigquery client: %w", err)
	}
	return NewRunsWithClient(client, dataset), nil
}

// NewRunsWithClient wraps an existing BigQuery client. The caller retains
// ownership of the client.
func NewRunsWithClient(client *bigquery.Client, dataset string) *Runs {
	return &Runs{client: client, dataset: dataset}
}

// Close releases the underlying client.
func (r *Runs) Close() error {
	return r.client.Close()
}

// StartRun inserts a new row with status=RUNNING and returns the generated
// run_id.
func (r *Runs) StartRun(ctx context.Context, uri string, source domain.SourceType, format string) (string, error) {
	runID := uuid.NewString()

	q := r.client.Query(fmt.Sprintf(`
		INSERT %s.%s (
			run_id,
			file_uri,
			source,
			format,
			started_ts,
			status
		)
		VALUES (
			@run_id,
			@file_uri,
			@source,
			@format,
			@started_ts,
			@status
		)
	`, r.dataset, ingestRunsTable))

	q.Parameters = []bigquery.QueryParameter{
		{Name: "run_id", Value: runID},
		{Name: "file_uri", Value: uri},
		{Name: "source", Value: string(source)},
		{Name: "format", Value: format},
		{Name: "started_ts", Value: time.Now()},
		{Name: "status", Value: RunStatusRunning},
	}

	if err := r.runQuery(ctx, q); err != nil {
		return "", fmt.Errorf("StartRun: %w", err)
	}
	return runID, nil
}

// FinishRun sets status=SUCCESS, finished_ts and the batch counters.
func (r *Runs) FinishRun(ctx context.Context, runID string, report *domain.IngestReport) error {
	q := r.client.Query(fmt.Sprintf(`
		UPDATE %s.%s
		SET status = @status,
		    finished_ts = @finished_ts,
		    error_message = "",
		    records_parsed = @records_parsed,
		    records_accepted = @records_accepted,
		    dropped_duplicate = @dropped_duplicate,
		    dropped_invalid = @dropped_invalid,
		    alerts_staged = @alerts_staged
		WHERE run_id = @run_id
	`, r.dataset, ingestRunsTable))

	q.Parameters = []bigquery.QueryParameter{
		{Name: "status", Value: RunStatusSuccess},
		{Name: "finished_ts", Value: time.Now()},
		{Name: "records_parsed", Value: int64(report.Parsed)},
		{Name: "records_accepted", Value: int64(report.Accepted)},
		{Name: "dropped_duplicate", Value: int64(report.DroppedDuplicate)},
		{Name: "dropped_invalid", Value: int64(report.DroppedInvalid)},
		{Name: "alerts_staged", Value: int64(report.AlertsStaged)},
		{Name: "run_id", Value: runID},
	}

	if err := r.runQuery(ctx, q); err != nil {
		return fmt.Errorf("FinishRun: %w", err)
	}
	return nil
}

// FailRun sets status=FAILED, finished_ts and error_message. Errors while
// recording the failure are logged and swallowed so they cannot mask the
// original ingestion error.
func (r *Runs) FailRun(ctx context.Context, runID string, runErr error) {
	log := logger.FromContext(ctx)

	errMsg := ""
	if runErr != nil {
		errMsg = runErr.Error()
		const maxLen = 2000
		if len(errMsg) > maxLen {
			errMsg = errMsg[:maxLen]
		}
	}

	q := r.client.Query(fmt.Sprintf(`
		UPDATE %s.%s
		SET status = @status,
		    finished_ts = @finished_ts,
		    error_message = @error_message
		WHERE run_id = @run_id
	`, r.dataset, ingestRunsTable))

	q.Parameters = []bigquery.QueryParameter{
		{Name: "status", Value: RunStatusFailed},
		{Name: "finished_ts", Value: time.Now()},
		{Name: "error_message", Value: errMsg},
		{Name: "run_id", Value: runID},
	}

	if err := r.runQuery(ctx, q); err != nil {
		log.Error().
			Err(err).
			Str("run_id", runID).
			Msg("FailRun: recording failure")
	}
}

func (r *Runs) runQuery(ctx context.Context, q *bigquery.Query) error {
	job, err := q.Run(ctx)
	if err != nil {
		return fmt.Errorf("running query: %w", err)
	}
	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("waiting for job: %w", err)
	}
	if err := status.Err(); err != nil {
		return fmt.Errorf("job error: %w", err)
	}
	return nil
}
