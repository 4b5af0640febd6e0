package simload

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fieldwise/dispatch/internal/domain/model"
	"github.com/fieldwise/dispatch/internal/domain/rationale"
	"github.com/fieldwise/dispatch/pkg/logger"
)

// verifySample bounds how many jobs get a determinism re-check.
const verifySample = 50

// Run executes the complete load simulation.
func Run(ctx context.Context, cfg *Config) (*Stats, error) {
	log := logger.Get().Named("simload")
	stats := &Stats{StartTime: time.Now()}
	client := NewClient(cfg.BaseURL, cfg.Timeout)
	gen := NewGenerator(cfg.Seed)

	log.Info(ctx, "starting load simulation",
		logger.String("base_url", cfg.BaseURL),
		logger.Int("contractors", cfg.Contractors),
		logger.Int("jobs", cfg.Jobs),
		logger.Int("workers", cfg.Workers),
		logger.Int64("seed", cfg.Seed))

	if err := client.Health(ctx); err != nil {
		return stats, fmt.Errorf("service unreachable: %w", err)
	}

	contractors := gen.Contractors(cfg.Contractors)
	for _, contractor := range contractors {
		if err := client.RegisterContractor(ctx, contractor); err != nil {
			return stats, fmt.Errorf("seed contractors: %w", err)
		}
		stats.ContractorsSeeded++
	}

	jobs := gen.Jobs(cfg.Jobs)
	for _, job := range jobs {
		if err := client.CreateJob(ctx, job); err != nil {
			return stats, fmt.Errorf("seed jobs: %w", err)
		}
		stats.JobsCreated++
	}
	log.Info(ctx, "pool seeded",
		logger.Int("contractors", stats.ContractorsSeeded),
		logger.Int("jobs", stats.JobsCreated))

	results := requestAll(ctx, client, cfg, jobs, stats, log)

	if cfg.Verify {
		verify(ctx, client, cfg, jobs, results, stats, log)
	}

	stats.Duration = time.Since(stats.StartTime)
	log.Info(ctx, "load simulation finished",
		logger.Int("requests", stats.RequestsIssued),
		logger.Int("failed", stats.RequestsFailed),
		logger.Int("empty", stats.EmptyResults),
		logger.Int("verified", stats.VerifiedRequests),
		logger.Int("order_mismatches", stats.OrderMismatches),
		logger.Int("rationale_too_long", stats.RationaleTooLong),
		logger.Duration("duration", stats.Duration))

	if stats.OrderMismatches > 0 || stats.RationaleTooLong > 0 {
		return stats, fmt.Errorf("verification failed: %d order mismatches, %d oversized rationales",
			stats.OrderMismatches, stats.RationaleTooLong)
	}
	return stats, nil
}

// requestAll issues one recommendation request per job across cfg.Workers
// goroutines and returns the results by job id.
func requestAll(ctx context.Context, client *Client, cfg *Config, jobs []model.Job, stats *Stats, log logger.Logger) map[string]*model.RecommendationResult {
	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		failed  atomic.Int64
		empty   atomic.Int64
		results = make(map[string]*model.RecommendationResult, len(jobs))
	)
	jobCh := make(chan model.Job)

	for i := 0; i < cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobCh {
				result, err := client.RequestRecommendations(ctx, job.ID, cfg.MaxResults)
				if err != nil {
					failed.Add(1)
					log.Warn(ctx, "recommendation request failed",
						logger.String("job_id", job.ID),
						logger.Error(err))
					continue
				}
				if len(result.Recommendations) == 0 {
					empty.Add(1)
				}
				mu.Lock()
				results[job.ID] = result
				mu.Unlock()
			}
		}()
	}

	for _, job := range jobs {
		select {
		case jobCh <- job:
		case <-ctx.Done():
			close(jobCh)
			wg.Wait()
			return results
		}
	}
	close(jobCh)
	wg.Wait()

	stats.RequestsIssued = len(jobs)
	stats.RequestsFailed = int(failed.Load())
	stats.EmptyResults = int(empty.Load())
	return results
}

// verify re-issues a sample of requests and checks two invariants: identical
// requests produce identical orderings, and no rationale exceeds the length
// cap.
func verify(ctx context.Context, client *Client, cfg *Config, jobs []model.Job, results map[string]*model.RecommendationResult, stats *Stats, log logger.Logger) {
	sample := jobs
	if len(sample) > verifySample {
		sample = sample[:verifySample]
	}

	for _, job := range sample {
		first, ok := results[job.ID]
		if !ok {
			continue
		}

		for _, rec := range first.Recommendations {
			if len(rec.Rationale) > rationale.MaxLength {
				stats.RationaleTooLong++
				log.Warn(ctx, "rationale exceeds cap",
					logger.String("job_id", job.ID),
					logger.Int("length", len(rec.Rationale)))
			}
		}

		second, err := client.RequestRecommendations(ctx, job.ID, cfg.MaxResults)
		if err != nil {
			stats.RequestsFailed++
			continue
		}
		stats.VerifiedRequests++

		if !sameOrder(first, second) {
			stats.OrderMismatches++
			log.Warn(ctx, "ordering differs between identical requests",
				logger.String("job_id", job.ID))
		}
	}
}

func sameOrder(a, b *model.RecommendationResult) bool {
	if len(a.Recommendations) != len(b.Recommendations) {
		return false
	}
	for i := range a.Recommendations {
		if a.Recommendations[i].ContractorID != b.Recommendations[i].ContractorID {
			return false
		}
	}
	return true
}
