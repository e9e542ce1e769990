// Package bigquery records the ingest-run audit trail: one row per pipeline
// invocation, moved from RUNNING to SUCCESS or FAILED with counters and the error
// message on failure. The trail is advisory; recording failures never block
// ingestion.
package bigquery

import (
	"time"

	"cloud.google.com/go/bigquery"
)

const ingestRunsTable = "ingest_runs"

// IngestRunRow is the BigQuery layout of one pipeline invocation.
type IngestRunRow struct {
	RunID   string `bigquery:"run_id"`
	FileURI string `bigquery:"file_uri"`
	Source  string `bigquery:"source"`
	Format  string `bigquery:"format"`

	StartedTS  time.Time              `bigquery:"started_ts"`
	FinishedTS bigquery.NullTimestamp `bigquery:"finished_ts"`

	Status       string `bigquery:"status"`
	ErrorMessage string `bigquery:"error_message"`

	RecordsParsed    bigquery.NullInt64 `bigquery:"records_parsed"`
	RecordsAccepted  bigquery.NullInt64 `bigquery:"records_accepted"`
	DroppedDuplicate bigquery.NullInt64 `bigquery:"dropped_duplicate"`
	DroppedInvalid   bigquery.NullInt64 `bigquery:"dropped_invalid"`
	AlertsStaged     bigquery.NullInt64 `bigquery:"alerts_staged"`
}

// Run statuses.
const (
	RunStatusRunning = "RUNNING"
	RunStatusSuccess = "SUCCESS"
	RunStatusFailed  = "FAILED"
)
