package service

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/watching-app/watching/internal/domain"
	"github.com/watching-app/watching/internal/logging"
	"github.com/watching-app/watching/internal/metrics"
)

const (
	defaultBatchSize  = 3
	defaultBatchDelay = 250 * time.Millisecond
)

type Searcher interface {
	Search(ctx context.Context, mt domain.MediaType, query string) ([]domain.CatalogTitle, error)
}

type SearchCache interface {
	GetSearch(ctx context.Context, mt domain.MediaType, query string) ([]domain.CatalogTitle, bool, error)
	SetSearch(ctx context.Context, mt domain.MediaType, query string, titles []domain.CatalogTitle) error
}

// Resolver enriches candidates from the catalog in fixed-size batches, with
// lookups inside a batch running concurrently and a pause between batches.
// A failed lookup yields a fallback entry; Resolve never fails.
type Resolver struct {
	catalog   Searcher
	cache     SearchCache
	batchSize int
	delay     time.Duration
	pause     func(ctx context.Context, d time.Duration)
}

// NewResolver builds a Resolver. cache may be nil.
func NewResolver(catalog Searcher, cache SearchCache, batchSize int, delay time.Duration) *Resolver {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	if delay < 0 {
		delay = defaultBatchDelay
	}
	return &Resolver{
		catalog:   catalog,
		cache:     cache,
		batchSize: batchSize,
		delay:     delay,
		pause:     sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

func (r *Resolver) Resolve(ctx context.Context, candidates []domain.RawCandidate) []domain.RecommendationEntry {
	out := make([]domain.RecommendationEntry, len(candidates))

	for start := 0; start < len(candidates); start += r.batchSize {
		end := min(start+r.batchSize, len(candidates))

		var g errgroup.Group
		for i := start; i < end; i++ {
			g.Go(func() error {
				out[i] = r.resolveOne(ctx, candidates[i])
				return nil
			})
		}
		_ = g.Wait()

		if end < len(candidates) {
			r.pause(ctx, r.delay)
		}
	}
	return out
}

func (r *Resolver) resolveOne(ctx context.Context, c domain.RawCandidate) domain.RecommendationEntry {
	titles, err := r.search(ctx, c.MediaType, c.Title)
	if err != nil {
		metrics.CatalogLookups.WithLabelValues("error").Inc()
		logging.Ctx(ctx).Warn().Err(err).
			Str("title", c.Title).
			Str("media_type", string(c.MediaType)).
			Msg("catalog lookup failed, using fallback entry")
		return domain.FallbackEntry(c)
	}
	if len(titles) == 0 {
		metrics.CatalogLookups.WithLabelValues("no_results").Inc()
		logging.Ctx(ctx).Warn().
			Str("title", c.Title).
			Str("media_type", string(c.MediaType)).
			Msg("no catalog match, using fallback entry")
		return domain.FallbackEntry(c)
	}

	metrics.CatalogLookups.WithLabelValues("matched").Inc()
	entry := titles[0].Entry(c.Reason)
	entry.MediaType = c.MediaType
	return entry
}

func (r *Resolver) search(ctx context.Context, mt domain.MediaType, query string) ([]domain.CatalogTitle, error) {
	if r.cache != nil {
		cached, found, err := r.cache.GetSearch(ctx, mt, query)
		if err != nil {
			metrics.CatalogCache.WithLabelValues("error").Inc()
			logging.Ctx(ctx).Debug().Err(err).Msg("catalog cache get failed")
		}
		if found {
			metrics.CatalogCache.WithLabelValues("hit").Inc()
			return cached, nil
		}
		metrics.CatalogCache.WithLabelValues("miss").Inc()
	}

	titles, err := r.catalog.Search(ctx, mt, query)
	if err != nil {
		return nil, err
	}

	if r.cache != nil && len(titles) > 0 {
		if err := r.cache.SetSearch(ctx, mt, query, titles); err != nil {
			logging.Ctx(ctx).Debug().Err(err).Msg("catalog cache set failed")
		}
	}
	return titles, nil
}
