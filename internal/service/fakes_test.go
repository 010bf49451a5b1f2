package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/watching-app/watching/internal/domain"
	"github.com/watching-app/watching/internal/model"
)

// scriptedOracle answers calls in order from responses; errs[i] wins over responses[i].
type scriptedOracle struct {
	mu        sync.Mutex
	responses []string
	errs      []error
	calls     []model.Request
}

func (o *scriptedOracle) Complete(_ context.Context, req model.Request) (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls = append(o.calls, req)
	i := len(o.calls) - 1
	if i < len(o.errs) && o.errs[i] != nil {
		return "", o.errs[i]
	}
	if i < len(o.responses) {
		return o.responses[i], nil
	}
	return "", errors.New("unexpected oracle call")
}

func (o *scriptedOracle) callCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.calls)
}

// fakeCatalog matches any query to one title unless listed in missing or failing.
type fakeCatalog struct {
	missing  map[string]bool
	failing  map[string]bool
	delay    func(title string) time.Duration
	calls    atomic.Int32
	inFlight atomic.Int32
	maxSeen  atomic.Int32
}

func (c *fakeCatalog) Search(ctx context.Context, mt domain.MediaType, query string) ([]domain.CatalogTitle, error) {
	c.calls.Add(1)
	n := c.inFlight.Add(1)
	defer c.inFlight.Add(-1)
	for {
		seen := c.maxSeen.Load()
		if n <= seen || c.maxSeen.CompareAndSwap(seen, n) {
			break
		}
	}

	if c.delay != nil {
		t := time.NewTimer(c.delay(query))
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, ctx.Err()
		case <-t.C:
		}
	}
	if c.failing[query] {
		return nil, errors.New("catalog unavailable")
	}
	if c.missing[query] {
		return []domain.CatalogTitle{}, nil
	}

	poster := "/" + strings.ToLower(strings.ReplaceAll(query, " ", "_")) + ".jpg"
	date := "2020-01-01"
	return []domain.CatalogTitle{{
		ID:          len(query) * 1000,
		Title:       query,
		MediaType:   mt,
		PosterPath:  &poster,
		Overview:    "About " + query,
		ReleaseDate: &date,
		VoteAverage: 7.5,
	}}, nil
}

type memoryCache struct {
	mu      sync.Mutex
	entries map[string][]domain.CatalogTitle
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[string][]domain.CatalogTitle{}}
}

func (m *memoryCache) GetSearch(_ context.Context, mt domain.MediaType, query string) ([]domain.CatalogTitle, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	titles, ok := m.entries[string(mt)+":"+query]
	return titles, ok, nil
}

func (m *memoryCache) SetSearch(_ context.Context, mt domain.MediaType, query string, titles []domain.CatalogTitle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[string(mt)+":"+query] = titles
	return nil
}

type memoryStore struct {
	mu        sync.Mutex
	records   map[uuid.UUID]*domain.RecommendationRecord
	createErr error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{records: map[uuid.UUID]*domain.RecommendationRecord{}}
}

func (m *memoryStore) CreateRecommendation(_ context.Context, rec *domain.RecommendationRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	m.records[rec.ID] = rec
	return nil
}

func (m *memoryStore) GetRecommendation(_ context.Context, id uuid.UUID) (*domain.RecommendationRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[id]
	if !ok {
		return nil, domain.ErrRecommendationNotFound
	}
	return rec, nil
}

func candidateJSON(title string, mt domain.MediaType) string {
	return fmt.Sprintf(`{"title":%q,"media_type":%q,"reason":"because you liked Inception"}`, title, mt)
}

// tenRecommendations is a canonical oracle answer with 5 movies and 5 shows.
func tenRecommendations() string {
	movies := []string{"Interstellar", "The Prestige", "Tenet", "Memento", "Shutter Island"}
	shows := []string{"Dark", "Westworld", "Severance", "Black Mirror", "Devs"}

	items := make([]string, 0, 10)
	for _, m := range movies {
		items = append(items, candidateJSON(m, domain.MediaMovie))
	}
	for _, s := range shows {
		items = append(items, candidateJSON(s, domain.MediaTV))
	}
	return `{"recommendations":[` + strings.Join(items, ",") + `]}`
}
