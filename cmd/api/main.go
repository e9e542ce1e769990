package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dvnair/fraudsight/internal/api/handlers"
	"github.com/dvnair/fraudsight/internal/api/middleware"
	"github.com/dvnair/fraudsight/internal/config"
	"github.com/dvnair/fraudsight/internal/detector"
	"github.com/dvnair/fraudsight/internal/gcs"
	infraBQ "github.com/dvnair/fraudsight/internal/infra/bigquery"
	"github.com/dvnair/fraudsight/internal/infra/firestore"
	"github.com/dvnair/fraudsight/internal/jobs"
	"github.com/dvnair/fraudsight/internal/jobs/inmemory"
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

	ctx := context.Background()
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

	// Initialize job infrastructure
	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(100, jobStore)

	// Start worker in background to process jobs
	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()

	// Create job handler for processing ingestion jobs
	jobHandler := func(ctx context.Context, job jobs.Job) error {
		ingestJob, ok := job.(*jobs.IngestFileJob)
		if !ok {
			return fmt.Errorf("unexpected job type: %T", job)
		}

		log.Info().
			Str("job_id", ingestJob.JobID).
			Str("file_uri", ingestJob.FileURI).
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

		log.Info().
			Str("job_id", ingestJob.JobID).
			Str("file_uri", ingestJob.FileURI).
			Int("accepted", report.Accepted).
			Int("alerts", report.AlertsStaged).
			Msg("Pipeline execution completed successfully")

		return nil
	}

	// Start job consumer in background
	go func() {
		log.Info().Msg("Starting job worker")
		if err := jobQueue.Start(workerCtx, jobHandler); err != nil {
			log.Error().Err(err).Msg("Job worker stopped with error")
		}
	}()

	// Initialize handlers
	ingestHandler := handlers.NewIngestHandler(jobQueue, log)
	jobsHandler := handlers.NewJobsHandler(jobStore, log)

	// Create router
	mux := http.NewServeMux()

	// Ingestion endpoints
	mux.HandleFunc("/api/ingest", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			ingestHandler.EnqueueIngest(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	// Jobs endpoints
	mux.HandleFunc("/api/jobs", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			jobsHandler.ListJobs(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/jobs/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			// Extract job ID from path
			jobID := strings.TrimPrefix(r.URL.Path, "/api/jobs/")
			if jobID == "" {
				middleware.WriteError(w, http.StatusBadRequest, "Job ID is required")
				return
			}
			jobsHandler.GetJob(w, r, jobID)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	// Health check endpoint
	mux.HandleFunc("/health", handlers.Health)

	// Apply middleware
	handler := middleware.Recovery(log)(
		middleware.Logger(log)(
			middleware.RequestID(
				middleware.CORS(mux),
			),
		),
	)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Cancel worker context
	cancelWorker()

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	// Stop job queue and wait for in-flight jobs
	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping job queue")
	}

	log.Info().Msg("Server exited")
}
