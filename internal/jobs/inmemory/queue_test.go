package inmemory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dvnair/fraudsight/internal/jobs"
)

func waitForStatus(t *testing.T, store *Store, jobID string, want jobs.JobStatus) *jobs.IngestFileJob {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		job, err := store.GetJob(context.Background(), jobID)
		if err == nil && job.Status == want {
			return job
		}
		time.Sleep(10 * time.Millisecond)
	}
	job, _ := store.GetJob(context.Background(), jobID)
	t.Fatalf("job %s never reached %s, last seen: %+v", jobID, want, job)
	return nil
}

func TestQueueDeliversJob(t *testing.T) {
	store := NewStore()
	q := NewQueue(10, store)
	defer q.Close()

	var mu sync.Mutex
	var handled []string
	handler := func(ctx context.Context, job jobs.Job) error {
		mu.Lock()
		handled = append(handled, job.GetID())
		mu.Unlock()
		return nil
	}

	if err := q.Start(context.Background(), handler); err != nil {
		t.Fatalf("Start: %v", err)
	}

	job := &jobs.IngestFileJob{FileURI: "gs://batches/atm_batch_01.jsonl"}
	if err := q.PublishIngestFile(context.Background(), job); err != nil {
		t.Fatalf("PublishIngestFile: %v", err)
	}
	if job.JobID == "" {
		t.Fatal("publish did not assign a job id")
	}

	final := waitForStatus(t, store, job.JobID, jobs.JobStatusCompleted)
	if final.Error != "" {
		t.Errorf("completed job carries error %q", final.Error)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(handled) != 1 || handled[0] != job.JobID {
		t.Errorf("handled = %v, want [%s]", handled, job.JobID)
	}
}

func TestQueueRetriesThenFails(t *testing.T) {
	store := NewStore()
	q := NewQueue(10, store)
	defer q.Close()

	handler := func(ctx context.Context, job jobs.Job) error {
		return errors.New("fetch failed")
	}
	if err := q.Start(context.Background(), handler); err != nil {
		t.Fatalf("Start: %v", err)
	}

	job := &jobs.IngestFileJob{FileURI: "gs://batches/broken.jsonl", MaxRetries: 1}
	if err := q.PublishIngestFile(context.Background(), job); err != nil {
		t.Fatalf("PublishIngestFile: %v", err)
	}

	final := waitForStatus(t, store, job.JobID, jobs.JobStatusFailed)
	if final.RetryCount != 1 {
		t.Errorf("RetryCount = %d, want 1", final.RetryCount)
	}
	if final.Error == "" {
		t.Error("failed job missing error message")
	}
}

func TestQueueRejectsPublishAfterClose(t *testing.T) {
	q := NewQueue(1, nil)
	if err := q.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	err := q.PublishIngestFile(context.Background(), &jobs.IngestFileJob{FileURI: "gs://b/f.jsonl"})
	if err == nil {
		t.Fatal("expected publish on closed queue to fail")
	}
}

func TestStoreListJobs(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	for _, j := range []*jobs.IngestFileJob{
		{JobID: "a", FileURI: "gs://b/atm.jsonl", Status: jobs.JobStatusCompleted},
		{JobID: "b", FileURI: "gs://b/upi.jsonl", Status: jobs.JobStatusFailed},
		{JobID: "c", FileURI: "gs://b/atm.jsonl", Status: jobs.JobStatusCompleted},
	} {
		if err := store.SaveJob(ctx, j); err != nil {
			t.Fatalf("SaveJob(%s): %v", j.JobID, err)
		}
	}

	byURI, err := store.ListJobs(ctx, jobs.JobFilter{FileURI: "gs://b/atm.jsonl"})
	if err != nil {
		t.Fatalf("ListJobs: %v", err)
	}
	if len(byURI) != 2 {
		t.Errorf("filter by uri: got %d jobs, want 2", len(byURI))
	}

	byStatus, err := store.ListJobs(ctx, jobs.JobFilter{Status: jobs.JobStatusFailed})
	if err != nil {
		t.Fatalf("ListJobs: %v", err)
	}
	if len(byStatus) != 1 || byStatus[0].JobID != "b" {
		t.Errorf("filter by status: got %+v", byStatus)
	}

	limited, err := store.ListJobs(ctx, jobs.JobFilter{Limit: 1})
	if err != nil {
		t.Fatalf("ListJobs: %v", err)
	}
	if len(limited) != 1 {
		t.Errorf("limit: got %d jobs, want 1", len(limited))
	}
}
