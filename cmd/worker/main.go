package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dvnair/fraudsight/internal/config"
	"github.com/dvnair/fraudsight/internal/detector"
	"github.com/dvnair/fraudsight/internal/enrich"
	"github.com/dvnair/fraudsight/internal/gcs"
	infraBQ "github.com/dvnair/fraudsight/internal/infra/bigquery"
	"github.com/dvnair/fraudsight/internal/infra/firestore"
	"github.com/dvnair/fraudsight/internal/jobs"
	"github.com/dvnair/fraudsight/internal/jobs/inmemory"
	jobspubsub "github.com/dvnair/fraudsight/internal/jobs/pubsub"
	"github.com/dvnair/fraudsight/internal/logger"
	"github.com/dvnair/fraudsight/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error: loading config:", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.LogLevel)

	log.Info().Msg("Starting worker service")

	// Create context that cancels on interrupt
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	storage, err := gcs.NewClient(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create storage client")
	}
	defer storage.Close()

	store, err := firestore.NewStore(ctx, cfg.ProjectID, cfg.FirestoreDatabase)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create document store")
	}
	defer store.Close()

	runs, err := infraBQ.NewRuns(ctx, cfg.ProjectID, cfg.BigQueryDataset)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create run recorder")
	}
	defer runs.Close()

	ingestor := pipeline.NewIngestor(storage, store, detector.New(cfg.DetectorConfig()),
		pipeline.WithProfileLookup(store),
		pipeline.WithRunRecorder(runs),
	)

	// Optional alert summarizer
	var summarizer *enrich.Summarizer
	if cfg.EnableAlertSummaries {
		gen, err := enrich.NewGeminiGenerator(ctx, cfg.SummaryModel)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create summary generator")
		}
		summarizer = enrich.NewSummarizer(gen)
	}

	// Create job handler that processes ingestion jobs
	handler := func(ctx context.Context, job jobs.Job) error {
		ingestJob, ok := job.(*jobs.IngestFileJob)
		if !ok {
			return fmt.Errorf("unexpected job type: %T", job)
		}

		log.Info().
			Str("job_id", ingestJob.JobID).
			Str("file_uri", ingestJob.FileURI).
			Str("source", string(ingestJob.Source)).
			Msg("Processing ingestion job")

		report, err := ingestor.Ingest(ctx, pipeline.FileRef{
			URI:    ingestJob.FileURI,
			Source: ingestJob.Source,
		})
		if err != nil {
			log.Error().
				Err(err).
				Str("job_id", ingestJob.JobID).
				Str("file_uri", ingestJob.FileURI).
				Msg("Pipeline execution failed")
			return err
		}
		ingestJob.RunID = report.RunID

		if summarizer != nil {
			for _, alert := range report.Alerts {
				summary, err := summarizer.SummarizeAlert(ctx, alert)
				if err != nil {
					log.Warn().Err(err).Str("alert_id", alert.AlertID()).Msg("Alert summary failed")
					continue
				}
				if err := store.SetAlertSummary(ctx, alert.AlertID(), summary); err != nil {
					log.Warn().Err(err).Str("alert_id", alert.AlertID()).Msg("Could not attach alert summary")
				}
			}
		}

		log.Info().
			Str("job_id", ingestJob.JobID).
			Str("file_uri", ingestJob.FileURI).
			Int("accepted", report.Accepted).
			Int("alerts", report.AlertsStaged).
			Msg("Pipeline execution completed successfully")

		return nil
	}

	// Initialize job store and queue. With a subscription configured, file
	// events arrive over Pub/Sub; otherwise an in-memory queue is used.
	jobStore := inmemory.NewStore()

	var consumer jobs.Consumer
	if cfg.PubSubSubscription != "" {
		c, err := jobspubsub.NewConsumer(ctx, cfg.ProjectID, cfg.PubSubSubscription, jobStore)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create pubsub consumer")
		}
		consumer = c
		log.Info().Str("subscription", cfg.PubSubSubscription).Msg("Consuming file events from Pub/Sub")
	} else {
		consumer = inmemory.NewQueue(100, jobStore)
		log.Info().Msg("Consuming file events from in-memory queue")
	}

	// Start consuming jobs
	if err := consumer.Start(ctx, handler); err != nil {
		log.Fatal().Err(err).Msg("Failed to start job consumer")
	}

	log.Info().Msg("Worker service started, waiting for jobs...")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down worker service...")

	// Cancel context to stop workers
	cancel()

	// Create shutdown context with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	// Stop the consumer and wait for in-flight jobs
	if err := consumer.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error during graceful shutdown")
	}

	log.Info().Msg("Worker service exited")
}
