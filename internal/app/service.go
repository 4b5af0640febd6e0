// Package app wires the dispatch core: slot finding, scoring, rationale,
// weights configuration, and the async audit pipeline behind one service.
package app

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	auditqueue "github.com/fieldwise/dispatch/internal/adapters/mq/queue"
	auditworker "github.com/fieldwise/dispatch/internal/adapters/mq/worker"
	"github.com/fieldwise/dispatch/internal/adapters/repository"
	"github.com/fieldwise/dispatch/internal/adapters/routing"
	"github.com/fieldwise/dispatch/internal/adapters/sqlite"
	"github.com/fieldwise/dispatch/internal/domain/availability"
	"github.com/fieldwise/dispatch/internal/domain/confcache"
	"github.com/fieldwise/dispatch/internal/domain/model"
	"github.com/fieldwise/dispatch/internal/domain/rationale"
	"github.com/fieldwise/dispatch/internal/domain/scoring"
	"github.com/fieldwise/dispatch/pkg/logger"
	"github.com/fieldwise/dispatch/pkg/metrics"
)

const (
	defaultMaxResults = 10
	maxResultsCap     = 50

	defaultQueueSize = 10000

	// seedActor marks the config row installed on first start.
	seedActor = "system"
)

// Reasons attached to hard-filtered candidates and empty results.
const (
	filterMissingSkills = "missing_skills"
	filterNoSlots       = "no_slots"

	emptyNoContractors = "no_contractors"
	emptyNoSkillMatch  = "no_matching_skills"
	emptyNoAvail       = "no_availability"
)

// WeightsStore is the persistence contract for versioned scoring configs.
type WeightsStore interface {
	GetActiveWeights(ctx context.Context) (*model.WeightsConfig, error)
	GetWeightsByVersion(ctx context.Context, version int64) (*model.WeightsConfig, error)
	GetWeightsHistory(ctx context.Context) ([]model.WeightsConfig, error)
	CreateWeightsVersion(ctx context.Context, cfg model.WeightsConfig) (*model.WeightsConfig, error)
	RollbackWeights(ctx context.Context, targetVersion int64, actor string) (*model.WeightsConfig, error)
}

// AuditStore is the persistence contract for the recommendation audit trail.
type AuditStore interface {
	WriteAudit(ctx context.Context, rec model.AuditRecord) error
	GetAudit(ctx context.Context, id string) (*model.AuditRecord, error)
	AuditForJob(ctx context.Context, jobID string) ([]model.AuditRecord, error)
}

// Service is the recommendation orchestrator.
type Service struct {
	mu sync.RWMutex

	store    repository.Store
	weights  WeightsStore
	audits   AuditStore
	resolver routing.BatchResolver

	finder *availability.Finder
	scorer *scoring.Engine
	cache  *confcache.Cache

	auditQueue *auditqueue.InMemoryQueue
	auditPool  *auditworker.Pool

	workerCount int
	queueSize   int
	parallelism int
	cacheTTL    time.Duration

	started bool
	cancel  context.CancelFunc
	log     logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of audit writer workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the audit queue capacity.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithParallelism bounds concurrent per-candidate slot finding and scoring.
func WithParallelism(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.parallelism = n
		}
	}
}

// WithMaxServiceRadius sets the distance at which the distance score
// reaches zero.
func WithMaxServiceRadius(meters float64) Option {
	return func(s *Service) {
		if meters > 0 {
			s.scorer = scoring.NewEngine(scoring.WithMaxServiceRadius(meters))
		}
	}
}

// WithConfigCacheTTL sets the active-config cache validity window.
func WithConfigCacheTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.cacheTTL = ttl
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(log logger.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// New constructs the service around its persistence and routing adapters.
func New(store repository.Store, weights WeightsStore, audits AuditStore, resolver routing.BatchResolver, opts ...Option) *Service {
	s := &Service{
		store:       store,
		weights:     weights,
		audits:      audits,
		resolver:    resolver,
		finder:      availability.NewFinder(),
		scorer:      scoring.NewEngine(),
		workerCount: 2,
		queueSize:   defaultQueueSize,
		parallelism: runtime.NumCPU(),
		log:         logger.Get().Named("dispatch"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start seeds the weights store when empty and launches the audit pipeline.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if _, err := s.weights.GetActiveWeights(ctx); err != nil {
		if !isNotFound(err) {
			return fmt.Errorf("read active config: %w", err)
		}
		seed := model.DefaultWeightsConfig()
		seed.CreatedBy = seedActor
		created, err := s.weights.CreateWeightsVersion(ctx, seed)
		if err != nil {
			return fmt.Errorf("seed default config: %w", err)
		}
		s.log.Info(ctx, "seeded default weights config", logger.Int64("version", created.Version))
	}

	cacheOpts := []confcache.Option{}
	if s.cacheTTL > 0 {
		cacheOpts = append(cacheOpts, confcache.WithTTL(s.cacheTTL))
	}
	s.cache = confcache.New(func(ctx context.Context) (*model.WeightsConfig, error) {
		cfg, err := s.weights.GetActiveWeights(ctx)
		if err != nil {
			return nil, err
		}
		metrics.UpdateActiveConfigVersion(cfg.Version)
		return cfg, nil
	}, cacheOpts...)

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	s.auditQueue = auditqueue.NewInMemoryQueue(auditqueue.WithCapacity(s.queueSize))
	s.auditPool = auditworker.NewPool(s.auditQueue, s.audits, auditworker.WithPoolSize(s.workerCount))
	s.auditPool.Start(runCtx)

	s.started = true
	s.log.Info(ctx, "dispatch service started",
		logger.Int("audit_workers", s.workerCount),
		logger.Int("audit_queue", s.queueSize),
		logger.Int("parallelism", s.parallelism),
	)
	return nil
}

// Stop drains the audit pipeline and shuts the service down.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}

	// Closing the queue lets workers drain buffered records before the pool
	// stops them.
	_ = s.auditQueue.Close()
	err := s.auditPool.Shutdown(ctx)
	s.cancel()

	s.started = false
	s.log.Info(ctx, "dispatch service stopped")
	return err
}

// RequestRecommendations ranks eligible contractors for a job.
func (s *Service) RequestRecommendations(ctx context.Context, req model.RecommendationRequest) (*model.RecommendationResult, error) {
	s.mu.RLock()
	started := s.started
	s.mu.RUnlock()
	if !started {
		return nil, ErrNotStarted
	}

	start := time.Now()
	metrics.RecordRecommendationRequest()
	defer func() {
		metrics.RecordRecommendationLatency(float64(time.Since(start).Milliseconds()))
	}()

	job, err := s.store.Job(ctx, req.JobID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("job %s: %w", req.JobID, err)
		}
		return nil, fmt.Errorf("load job %s: %w: %v", req.JobID, ErrUnavailable, err)
	}
	if job.Terminal() {
		return nil, fmt.Errorf("job %s is %s: %w", job.ID, job.Status, ErrValidation)
	}

	desiredDate := req.DesiredDate
	if desiredDate == (model.Date{}) {
		desiredDate = job.DesiredDate
	}
	window := req.ServiceWindow
	if window.IsZero() {
		window = job.ServiceWindow
	}
	if !window.End.After(window.Start) {
		return nil, fmt.Errorf("service window %s: %w", window, ErrValidation)
	}

	maxResults := req.MaxResults
	switch {
	case maxResults <= 0:
		maxResults = defaultMaxResults
	case maxResults > maxResultsCap:
		maxResults = maxResultsCap
	}

	cfg, err := s.cache.Active(ctx)
	if err != nil {
		return nil, fmt.Errorf("load weights config: %w: %v", ErrUnavailable, err)
	}

	contractors, err := s.store.ListContractors(ctx)
	if err != nil {
		return nil, fmt.Errorf("list contractors: %w: %v", ErrUnavailable, err)
	}

	eligible := contractors[:0:0]
	for _, c := range contractors {
		if !c.HasSkills(job.RequiredSkills) {
			metrics.RecordCandidateFiltered(filterMissingSkills)
			continue
		}
		eligible = append(eligible, c)
	}

	distances := s.resolveDistances(ctx, job.Location, eligible)
	candidates := s.scoreCandidates(ctx, &job, desiredDate, window, eligible, distances, cfg)

	scoring.SortCandidates(candidates, cfg.TieBreakers)

	returned := len(candidates)
	if returned > maxResults {
		returned = maxResults
	}
	recommendations := make([]model.Recommendation, 0, returned)
	for i := range candidates {
		if i >= returned {
			break
		}
		candidates[i].Returned = true
		c := candidates[i]
		recommendations = append(recommendations, model.Recommendation{
			ContractorID:   c.ContractorID,
			ContractorName: c.ContractorName,
			Score:          c.Score,
			Breakdown:      c.Breakdown,
			Rationale:      rationale.Generate(c.Breakdown, c.Score),
			Slots:          c.Slots,
			DistanceMeters: c.DistanceMeters,
			ETAMinutes:     c.ETAMinutes,
		})
	}

	result := &model.RecommendationResult{
		RequestID:         uuid.NewString(),
		JobID:             job.ID,
		Recommendations:   recommendations,
		ConfigVersionUsed: cfg.Version,
		GeneratedAt:       time.Now().UTC(),
	}
	if len(recommendations) == 0 {
		result.EmptyReason = emptyReason(len(contractors), len(eligible))
		metrics.RecordRecommendationEmpty()
	}

	s.enqueueAudit(ctx, result, req, desiredDate, window, candidates, cfg.Version)
	return result, nil
}

func emptyReason(total, eligible int) string {
	switch {
	case total == 0:
		return emptyNoContractors
	case eligible == 0:
		return emptyNoSkillMatch
	default:
		return emptyNoAvail
	}
}

// resolveDistances runs the batch resolver, degrading to unknown distances
// when the resolver fails or omits a destination.
func (s *Service) resolveDistances(ctx context.Context, origin model.LatLng, contractors []model.Contractor) map[string]scoring.DistanceInfo {
	out := make(map[string]scoring.DistanceInfo, len(contractors))
	for _, c := range contractors {
		out[c.ID] = scoring.DistanceInfo{Unknown: true}
	}
	if len(contractors) == 0 {
		return out
	}

	destinations := make(map[string]model.LatLng, len(contractors))
	for _, c := range contractors {
		destinations[c.ID] = c.Location
	}
	results, err := s.resolver.ResolveBatch(ctx, origin, destinations)
	if err != nil {
		metrics.RecordDistanceResolveFailure()
		s.log.Warn(ctx, "distance resolution failed, scoring with unknown distances",
			logger.Int("candidates", len(contractors)),
			logger.Error(err))
		return out
	}
	for id, r := range results {
		out[id] = scoring.DistanceInfo{Meters: r.Meters, ETAMinutes: r.ETAMinutes}
	}
	return out
}

// scoreCandidates finds slots and scores eligible contractors with bounded
// parallelism. Candidates without any feasible slot are dropped here.
func (s *Service) scoreCandidates(
	ctx context.Context,
	job *model.Job,
	desiredDate model.Date,
	window model.TimeWindow,
	contractors []model.Contractor,
	distances map[string]scoring.DistanceInfo,
	cfg *model.WeightsConfig,
) []model.ScoredCandidate {
	var (
		mu         sync.Mutex
		wg         sync.WaitGroup
		candidates []model.ScoredCandidate
	)
	sem := make(chan struct{}, s.parallelism)

	for i := range contractors {
		contractor := contractors[i]
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			cand, ok := s.scoreOne(ctx, job, &contractor, desiredDate, window, distances[contractor.ID], cfg)
			if !ok {
				return
			}
			mu.Lock()
			candidates = append(candidates, cand)
			mu.Unlock()
		}()
	}
	wg.Wait()

	// Stable starting order before the score sort; goroutine completion
	// order must not leak into results.
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].ContractorID < candidates[j].ContractorID
	})
	return candidates
}

func (s *Service) scoreOne(
	ctx context.Context,
	job *model.Job,
	contractor *model.Contractor,
	desiredDate model.Date,
	window model.TimeWindow,
	dist scoring.DistanceInfo,
	cfg *model.WeightsConfig,
) (model.ScoredCandidate, bool) {
	assignments, err := s.store.AssignmentsForContractor(ctx, contractor.ID)
	if err != nil {
		s.log.Warn(ctx, "load assignments failed, skipping candidate",
			logger.String("contractor_id", contractor.ID),
			logger.Error(err))
		metrics.RecordCandidateFiltered(filterNoSlots)
		return model.ScoredCandidate{}, false
	}
	active := assignments[:0:0]
	for _, a := range assignments {
		if a.Active() {
			active = append(active, a)
		}
	}

	slotStart := time.Now()
	slots, err := s.finder.FindSlots(ctx, contractor, job, desiredDate, window, active, 0)
	metrics.RecordSlotFinderLatency(float64(time.Since(slotStart).Milliseconds()))
	if err != nil {
		s.log.Warn(ctx, "slot finding failed",
			logger.String("contractor_id", contractor.ID),
			logger.Error(err))
		metrics.RecordCandidateFiltered(filterNoSlots)
		return model.ScoredCandidate{}, false
	}
	if len(slots) == 0 {
		metrics.RecordCandidateFiltered(filterNoSlots)
		return model.ScoredCandidate{}, false
	}

	scoreStart := time.Now()
	breakdown, final := s.scorer.Score(contractor, window, slots, dist, cfg)
	metrics.RecordScoringLatency(float64(time.Since(scoreStart).Milliseconds()))
	metrics.RecordCandidateScored()

	cand := model.ScoredCandidate{
		ContractorID:   contractor.ID,
		ContractorName: contractor.Name,
		Score:          final,
		Breakdown:      breakdown,
		Slots:          slots,
	}
	if !dist.Unknown {
		cand.DistanceMeters = dist.Meters
		cand.ETAMinutes = dist.ETAMinutes
	}
	return cand, true
}

// enqueueAudit snapshots every scored candidate for the audit trail. The
// write is best-effort: the response is already final when this runs.
func (s *Service) enqueueAudit(
	ctx context.Context,
	result *model.RecommendationResult,
	req model.RecommendationRequest,
	desiredDate model.Date,
	window model.TimeWindow,
	candidates []model.ScoredCandidate,
	configVersion int64,
) {
	req.DesiredDate = desiredDate
	req.ServiceWindow = window
	rec := model.AuditRecord{
		ID:          uuid.NewString(),
		JobID:       result.JobID,
		Request:     req,
		Candidates:  candidates,
		ConfigUsed:  configVersion,
		EmptyReason: result.EmptyReason,
		Actor:       req.Actor,
		CreatedAt:   result.GeneratedAt,
	}
	if !s.auditQueue.Enqueue(ctx, rec) {
		s.log.Warn(ctx, "audit queue full, dropping record",
			logger.String("audit_id", rec.ID),
			logger.String("job_id", rec.JobID))
		return
	}

	if err := s.store.UpdateJob(ctx, result.JobID, func(j *model.Job) error {
		j.LastAuditID = rec.ID
		return nil
	}); err != nil {
		s.log.Warn(ctx, "recording audit reference on job failed",
			logger.String("job_id", result.JobID),
			logger.Error(err))
	}
}

// GetActiveWeightsConfig returns the active scoring configuration, served
// from the short-TTL cache.
func (s *Service) GetActiveWeightsConfig(ctx context.Context) (*model.WeightsConfig, error) {
	if !s.isStarted() {
		return nil, ErrNotStarted
	}
	return s.cache.Active(ctx)
}

// UpdateWeightsConfig validates and installs a new config version.
func (s *Service) UpdateWeightsConfig(ctx context.Context, cfg model.WeightsConfig, actor string) (*model.WeightsConfig, error) {
	if !s.isStarted() {
		return nil, ErrNotStarted
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	cfg.CreatedBy = actor

	created, err := s.weights.CreateWeightsVersion(ctx, cfg)
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate()
	metrics.RecordConfigWrite()
	metrics.UpdateActiveConfigVersion(created.Version)
	s.log.Info(ctx, "weights config updated",
		logger.Int64("version", created.Version),
		logger.String("actor", actor))
	return created, nil
}

// RollbackWeightsConfig installs a new version copying an older one.
func (s *Service) RollbackWeightsConfig(ctx context.Context, targetVersion int64, actor string) (*model.WeightsConfig, error) {
	if !s.isStarted() {
		return nil, ErrNotStarted
	}
	created, err := s.weights.RollbackWeights(ctx, targetVersion, actor)
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate()
	metrics.RecordConfigRollback()
	metrics.UpdateActiveConfigVersion(created.Version)
	s.log.Info(ctx, "weights config rolled back",
		logger.Int64("version", created.Version),
		logger.Int64("target", targetVersion),
		logger.String("actor", actor))
	return created, nil
}

// GetWeightsConfigHistory returns every config version, newest first.
func (s *Service) GetWeightsConfigHistory(ctx context.Context) ([]model.WeightsConfig, error) {
	if !s.isStarted() {
		return nil, ErrNotStarted
	}
	return s.weights.GetWeightsHistory(ctx)
}

// GetAuditRecord returns one audit record by id.
func (s *Service) GetAuditRecord(ctx context.Context, id string) (*model.AuditRecord, error) {
	return s.audits.GetAudit(ctx, id)
}

// AuditTrailForJob returns a job's audit records, newest first.
func (s *Service) AuditTrailForJob(ctx context.Context, jobID string) ([]model.AuditRecord, error) {
	return s.audits.AuditForJob(ctx, jobID)
}

func (s *Service) isStarted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started
}

func isNotFound(err error) bool {
	return errors.Is(err, sqlite.ErrNotFound) || errors.Is(err, repository.ErrNotFound)
}
