package service

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/watching-app/watching/internal/domain"
)

const popularLimit = 10

type CatalogBrowser interface {
	SearchMulti(ctx context.Context, query string) ([]domain.CatalogTitle, error)
	TopRated(ctx context.Context, mt domain.MediaType) ([]domain.CatalogTitle, error)
	Similar(ctx context.Context, mt domain.MediaType, id int) ([]domain.CatalogTitle, error)
}

// Browse backs the catalog passthrough endpoints the swipe UI uses.
type Browse struct {
	catalog CatalogBrowser
	shuffle func(n int, swap func(i, j int))
}

func NewBrowse(catalog CatalogBrowser) *Browse {
	return &Browse{catalog: catalog, shuffle: rand.Shuffle}
}

func (b *Browse) Search(ctx context.Context, query string) ([]domain.CatalogTitle, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: query is required", domain.ErrValidation)
	}
	titles, err := b.catalog.SearchMulti(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("search catalog: %w", err)
	}
	return titles, nil
}

// Popular mixes top-rated movies and shows, shuffled, and keeps the first ten.
func (b *Browse) Popular(ctx context.Context) ([]domain.CatalogTitle, error) {
	var movies, shows []domain.CatalogTitle

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		movies, err = b.catalog.TopRated(gctx, domain.MediaMovie)
		return err
	})
	g.Go(func() error {
		var err error
		shows, err = b.catalog.TopRated(gctx, domain.MediaTV)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("fetch top rated: %w", err)
	}

	all := append(movies, shows...)
	b.shuffle(len(all), func(i, j int) { all[i], all[j] = all[j], all[i] })
	if len(all) > popularLimit {
		all = all[:popularLimit]
	}
	return all, nil
}

func (b *Browse) Similar(ctx context.Context, mt domain.MediaType, id int) ([]domain.CatalogTitle, error) {
	if !mt.Valid() || id <= 0 {
		return nil, fmt.Errorf("%w: id and type (movie or tv) are required", domain.ErrValidation)
	}
	titles, err := b.catalog.Similar(ctx, mt, id)
	if err != nil {
		return nil, fmt.Errorf("fetch similar titles: %w", err)
	}
	return titles, nil
}
