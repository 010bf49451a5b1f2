package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/watching-app/watching/internal/domain"
	"github.com/watching-app/watching/internal/logging"
	"github.com/watching-app/watching/internal/metrics"
	"github.com/watching-app/watching/internal/validation"
)

type RecordStore interface {
	CreateRecommendation(ctx context.Context, rec *domain.RecommendationRecord) error
	GetRecommendation(ctx context.Context, id uuid.UUID) (*domain.RecommendationRecord, error)
}

type Options struct {
	Temperature       float32
	RepairTemperature float32
	BatchSize         int
	BatchDelay        time.Duration
}

type Service struct {
	generator  *Generator
	normalizer *Normalizer
	resolver   *Resolver
	store      RecordStore
	now        func() time.Time
}

// NewService wires the pipeline. cache may be nil.
func NewService(store RecordStore, oracle Oracle, catalog Searcher, cache SearchCache, opts Options) *Service {
	return &Service{
		generator:  NewGenerator(oracle, opts.Temperature),
		normalizer: NewNormalizer(oracle, opts.RepairTemperature),
		resolver:   NewResolver(catalog, cache, opts.BatchSize, opts.BatchDelay),
		store:      store,
		now:        time.Now,
	}
}

// RunResult is a finished pipeline run. Persisted is false when the record
// could not be written; ID is then not retrievable.
type RunResult struct {
	ID        uuid.UUID
	Entries   []domain.RecommendationEntry
	Persisted bool
}

// Run validates prefs, asks the oracle for candidates, resolves them against
// the catalog and stores the record.
func (s *Service) Run(ctx context.Context, prefs domain.PreferenceSet) (*RunResult, error) {
	log := logging.Ctx(ctx)
	prefs.Normalize()

	if err := validation.Struct(prefs); err != nil {
		metrics.PipelineRuns.WithLabelValues("validation_error").Inc()
		return nil, fmt.Errorf("%w: %w", domain.ErrValidation, err)
	}

	start := time.Now()
	raw, err := s.generator.Generate(ctx, prefs)
	observeStage("generate", start)
	if err != nil {
		metrics.PipelineRuns.WithLabelValues("generation_error").Inc()
		return nil, err
	}

	start = time.Now()
	candidates, err := s.normalizer.Normalize(ctx, raw)
	observeStage("normalize", start)
	if err != nil {
		metrics.PipelineRuns.WithLabelValues("malformed_output").Inc()
		return nil, err
	}

	start = time.Now()
	entries := s.resolver.Resolve(ctx, candidates)
	observeStage("resolve", start)

	// Lookups fall back once the request is gone; do not store or return those.
	if err := ctx.Err(); err != nil {
		metrics.PipelineRuns.WithLabelValues("cancelled").Inc()
		log.Warn().Err(err).Int("candidates", len(candidates)).Msg("request ended during catalog resolution")
		return nil, fmt.Errorf("resolve: %w", err)
	}

	rec := &domain.RecommendationRecord{
		ID:        uuid.New(),
		Inputs:    prefs,
		Result:    entries,
		CreatedAt: s.now().UTC(),
	}

	start = time.Now()
	persisted := true
	if err := s.store.CreateRecommendation(ctx, rec); err != nil {
		persisted = false
		metrics.PersistenceFailures.Inc()
		log.Error().Err(err).Str("id", rec.ID.String()).Msg("failed to store recommendation")
	}
	observeStage("persist", start)

	metrics.PipelineRuns.WithLabelValues("ok").Inc()
	log.Info().
		Str("id", rec.ID.String()).
		Int("candidates", len(candidates)).
		Bool("persisted", persisted).
		Msg("recommendations generated")

	return &RunResult{ID: rec.ID, Entries: entries, Persisted: persisted}, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*domain.RecommendationRecord, error) {
	rec, err := s.store.GetRecommendation(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get recommendation: %w", err)
	}
	return rec, nil
}

func observeStage(stage string, start time.Time) {
	metrics.PipelineStageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}
