// services/batch_runner_service.go
package services

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/answerlens/answerlens-workflows/internal/config"
	"github.com/answerlens/answerlens-workflows/internal/models"
)

type batchRunnerService struct {
	cfg        *config.Config
	repos      *RepositoryManager
	extraction ExtractionService
	cache      *ProductCache
}

func NewBatchRunnerService(cfg *config.Config, repos *RepositoryManager, extraction ExtractionService, cache *ProductCache) BatchRunnerService {
	return &batchRunnerService{
		cfg:        cfg,
		repos:      repos,
		extraction: extraction,
		cache:      cache,
	}
}

type extractionJobResult struct {
	run    *models.AnswerRun
	result *ExtractionResult
	err    error
}

// RunExtractionBatch selects answer runs with no persisted positions and
// pushes them through the extraction pipeline with a bounded worker pool.
// Per-record failures are collected, not propagated; the batch aborts early
// only after too many failures in a row, which signals a dead collaborator
// rather than bad records.
func (s *batchRunnerService) RunExtractionBatch(ctx context.Context, batchSize int) (*BatchSummary, error) {
	start := time.Now()

	if batchSize <= 0 {
		batchSize = s.cfg.Extraction.BatchSize
	}
	concurrency := s.cfg.Extraction.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	maxConsecutive := s.cfg.Extraction.ConsecutiveFailures
	if maxConsecutive < 1 {
		maxConsecutive = 1
	}

	runs, err := s.repos.AnswerRunRepo.GetUnprocessed(ctx, batchSize)
	if err != nil {
		return nil, fmt.Errorf("failed to select unprocessed answer runs: %w", err)
	}

	fmt.Printf("[RunExtractionBatch] selected=%d concurrency=%d\n", len(runs), concurrency)

	summary := &BatchSummary{Selected: len(runs)}
	if len(runs) == 0 {
		summary.Duration = time.Since(start)
		return summary, nil
	}

	// Product discoveries are cached for the lifetime of this batch only.
	s.cache.Flush()

	// batchCtx lets the failure guard stop workers from picking up new
	// records; the in-flight ones are allowed to finish.
	batchCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var consecutiveFailures int64

	jobs := make(chan *models.AnswerRun)
	results := make(chan extractionJobResult, len(runs))

	var wg sync.WaitGroup
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for run := range jobs {
				// Cooperative cancellation between records: never start a
				// new record once the batch is cancelled.
				if batchCtx.Err() != nil {
					continue
				}

				result, err := s.extraction.ProcessAnswerRun(batchCtx, run)
				if err != nil {
					if atomic.AddInt64(&consecutiveFailures, 1) >= int64(maxConsecutive) {
						fmt.Printf("[RunExtractionBatch] %d consecutive failures, aborting batch\n", maxConsecutive)
						cancel()
					}
				} else {
					atomic.StoreInt64(&consecutiveFailures, 0)
				}
				results <- extractionJobResult{run: run, result: result, err: err}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, run := range runs {
			select {
			case jobs <- run:
			case <-batchCtx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	for res := range results {
		if res.err != nil {
			summary.Failed++
			summary.Failures = append(summary.Failures, BatchFailure{
				AnswerRunID: res.run.AnswerRunID,
				Reason:      res.err.Error(),
			})
			fmt.Printf("[RunExtractionBatch] answer_run=%s FAILED: %v\n", res.run.AnswerRunID, res.err)
			continue
		}
		summary.Processed++
		summary.TotalCost += res.result.EnrichmentCost
	}

	summary.Duration = time.Since(start)
	fmt.Printf("[RunExtractionBatch] complete selected=%d processed=%d failed=%d cost=%.4f duration=%s\n",
		summary.Selected, summary.Processed, summary.Failed, summary.TotalCost, summary.Duration)

	return summary, nil
}
