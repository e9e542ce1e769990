// Package pubsub consumes batch-file notifications from a Cloud Pub/Sub
// subscription and turns them into ingestion jobs. Messages carry the JSON
// body published by the upload notifier:
//
//	{"blob_url": "gs://bucket/atm_batch_01.jsonl", "source": "atm"}
//
// The source field is optional; when absent, routing falls back to the URI.
package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"cloud.google.com/go/pubsub"
	"github.com/google/uuid"

	"github.com/dvnair/fraudsight/internal/domain"
	"github.com/dvnair/fraudsight/internal/jobs"
	"github.com/dvnair/fraudsight/internal/logger"
)

// fileEvent is the wire shape of one notification message.
type fileEvent struct {
	BlobURL string `json:"blob_url"`
	Source  string `json:"source,omitempty"`
}

// Consumer receives file events from a Pub/Sub subscription and dispatches
// them to a JobHandler as IngestFileJobs. It implements jobs.Consumer.
type Consumer struct {
	client *pubsub.Client
	sub    *pubsub.Subscription
	store  jobs.JobStore

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

var _ jobs.Consumer = (*Consumer)(nil)

// NewConsumer connects to the subscription in projectID. The store is
// optional; when set, job state transitions are recorded in it.
func NewConsumer(ctx context.Context, projectID, subscription string, store jobs.JobStore) (*Consumer, error) {
	client, err := pubsub.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("NewConsumer: pubsub client: %w", err)
	}

	return &Consumer{
		client: client,
		sub:    client.Subscription(subscription),
		store:  store,
	}, nil
}

// Start implements the Consumer interface. It blocks in a background
// goroutine receiving messages until Stop is called or ctx is cancelled.
func (c *Consumer) Start(ctx context.Context, handler jobs.JobHandler) error {
	c.mu.Lock()
	if c.cancel != nil {
		c.mu.Unlock()
		return fmt.Errorf("consumer already started")
	}
	recvCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.done = make(chan struct{})
	c.mu.Unlock()

	go func() {
		defer close(c.done)
		log := logger.FromContext(ctx)

		err := c.sub.Receive(recvCtx, func(msgCtx context.Context, msg *pubsub.Message) {
			c.handleMessage(msgCtx, msg, handler)
		})
		if err != nil && recvCtx.Err() == nil {
			log.Error().Err(err).Msg("pubsub receive stopped")
		}
	}()

	return nil
}

// handleMessage decodes one notification and runs it through the handler.
// Undecodable messages are acked: redelivery cannot fix a malformed payload.
func (c *Consumer) handleMessage(ctx context.Context, msg *pubsub.Message, handler jobs.JobHandler) {
	log := logger.FromContext(ctx)

	var event fileEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		log.Error().Err(err).Str("message_id", msg.ID).Msg("dropping undecodable file event")
		msg.Ack()
		return
	}
	if event.BlobURL == "" {
		log.Error().Str("message_id", msg.ID).Msg("dropping file event without blob_url")
		msg.Ack()
		return
	}

	job := &jobs.IngestFileJob{
		JobID:     uuid.New().String(),
		FileURI:   event.BlobURL,
		Source:    domain.SourceType(event.Source),
		Status:    jobs.JobStatusRunning,
		CreatedAt: time.Now(),
	}
	now := time.Now()
	job.StartedAt = &now

	if c.store != nil {
		_ = c.store.SaveJob(ctx, job)
	}

	err := handler(ctx, job)

	completedAt := time.Now()
	job.CompletedAt = &completedAt
	if err != nil {
		job.Status = jobs.JobStatusFailed
		job.Error = err.Error()
		// Nack so Pub/Sub redelivers per the subscription's retry policy.
		msg.Nack()
	} else {
		job.Status = jobs.JobStatusCompleted
		msg.Ack()
	}

	if c.store != nil {
		_ = c.store.SaveJob(ctx, job)
	}
}

// Stop implements the Consumer interface. It cancels the receive loop, waits
// for in-flight handlers to drain, then closes the client.
func (c *Consumer) Stop(ctx context.Context) error {
	c.mu.Lock()
	cancel := c.cancel
	done := c.done
	c.cancel = nil
	c.mu.Unlock()

	if cancel == nil {
		return c.client.Close()
	}
	cancel()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return c.client.Close()
}
