package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"github.com/answerlens/answerlens-workflows/internal/config"
	"github.com/answerlens/answerlens-workflows/services"
)

// Standalone backfill tool: intentionally duplicates DB bootstrapping from main.go
func connectDatabase(ctx context.Context, cfg config.DatabaseConfig) (*sqlx.DB, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name, cfg.SSLMode,
	)

	db, err := sqlx.ConnectContext(ctx, "postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Second)

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

func main() {
	var (
		batchSize      = flag.Int("batch-size", 0, "answer runs per batch (0 = use EXTRACTION_BATCH_SIZE)")
		concurrency    = flag.Int("concurrency", 0, "concurrent extraction workers (0 = use EXTRACTION_CONCURRENCY)")
		maxConsecutive = flag.Int("max-consecutive-failures", 0, "abort a batch after N failures in a row (0 = use config)")
		maxBatches     = flag.Int("max-batches", 0, "optional max batches to run (0 = until no unprocessed runs remain)")
		timeout        = flag.Duration("timeout", 60*time.Minute, "overall timeout for the script")
	)
	flag.Parse()

	// Load env vars like the main service (but this tool is intentionally standalone).
	if err := godotenv.Load(); err != nil {
		_ = godotenv.Load("dev.env")
	}
	cfg := config.Load()

	if *batchSize > 0 {
		cfg.Extraction.BatchSize = *batchSize
	}
	if *concurrency > 0 {
		cfg.Extraction.Concurrency = *concurrency
	}
	if *maxConsecutive > 0 {
		cfg.Extraction.ConsecutiveFailures = *maxConsecutive
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	db, err := connectDatabase(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("DB connect failed: %v", err)
	}
	defer db.Close()

	repos := services.NewRepositoryManager(db)
	costService := services.NewCostService()
	enrichmentService := services.NewEnrichmentService(cfg, costService)
	productCache := services.NewProductCache(time.Duration(cfg.Extraction.ProductCacheTTL) * time.Second)
	extractionService := services.NewExtractionService(repos, enrichmentService, productCache)
	batchRunner := services.NewBatchRunnerService(cfg, repos, extractionService, productCache)

	log.Printf("[extraction_backfill] batch_size=%d concurrency=%d max_batches=%d",
		cfg.Extraction.BatchSize, cfg.Extraction.Concurrency, *maxBatches)

	totalProcessed := 0
	totalFailed := 0
	totalCost := 0.0
	start := time.Now()

	for batch := 1; ; batch++ {
		if *maxBatches > 0 && batch > *maxBatches {
			log.Printf("[extraction_backfill] reached max batches (%d), stopping", *maxBatches)
			break
		}
		if ctx.Err() != nil {
			log.Printf("[extraction_backfill] timeout reached, stopping")
			break
		}

		summary, err := batchRunner.RunExtractionBatch(ctx, cfg.Extraction.BatchSize)
		if err != nil {
			log.Fatalf("[extraction_backfill] batch %d failed: %v", batch, err)
		}

		totalProcessed += summary.Processed
		totalFailed += summary.Failed
		totalCost += summary.TotalCost

		log.Printf("[extraction_backfill] batch=%d selected=%d processed=%d failed=%d cost=%.4f",
			batch, summary.Selected, summary.Processed, summary.Failed, summary.TotalCost)
		for _, failure := range summary.Failures {
			log.Printf("[extraction_backfill]   answer_run=%s: %s", failure.AnswerRunID, failure.Reason)
		}

		if summary.Selected == 0 {
			log.Printf("[extraction_backfill] no unprocessed answer runs remain")
			break
		}
		// A batch where nothing succeeded will keep selecting the same rows;
		// stop instead of looping on them forever.
		if summary.Processed == 0 {
			log.Printf("[extraction_backfill] batch made no progress, stopping")
			break
		}
	}

	log.Printf("[extraction_backfill] done processed=%d failed=%d cost=%.4f duration=%s",
		totalProcessed, totalFailed, totalCost, time.Since(start))
}
