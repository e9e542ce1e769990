package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/dvnair/fraudsight/internal/config"
	"github.com/dvnair/fraudsight/internal/detector"
	"github.com/dvnair/fraudsight/internal/domain"
	"github.com/dvnair/fraudsight/internal/gcs"
	infraBQ "github.com/dvnair/fraudsight/internal/infra/bigquery"
	"github.com/dvnair/fraudsight/internal/infra/firestore"
	"github.com/dvnair/fraudsight/internal/logger"
	"github.com/dvnair/fraudsight/internal/pipeline"
)

func main() {
	// Parse CLI flags
	uri := flag.String("uri", "", "GCS URI of the batch file (e.g. gs://bucket/atm_batch_01.jsonl)")
	source := flag.String("source", "", "source override: atm, upi or customers (default: routed from URI)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error: loading config:", err)
		return
	}

	// Initialize structured logger
	log := logger.New(cfg.LogLevel)

	if *uri == "" {
		log.Fatal().Msg("Error: --uri is required")
	}
	if *source != "" {
		switch domain.SourceType(*source) {
		case domain.SourceATM, domain.SourceUPI, domain.SourceCustomers:
		default:
			log.Fatal().Str("source", *source).Msg("Error: --source must be atm, upi or customers")
		}
	}

	// Create context with timeout so CLI doesn't hang
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	// Add logger to context
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

	log.Info().Str("uri", *uri).Str("source", *source).Msg("Starting ingestion")

	report, err := ingestor.Ingest(ctx, pipeline.FileRef{URI: *uri, Source: domain.SourceType(*source)})
	if err != nil {
		log.Fatal().Err(err).Msg("Ingestion failed")
	}

	fmt.Printf("Ingestion completed: %d parsed, %d accepted, %d duplicates, %d invalid, %d alerts\n",
		report.Parsed, report.Accepted, report.DroppedDuplicate, report.DroppedInvalid, report.AlertsStaged)
}
