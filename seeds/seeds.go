// Package seeds writes demo recommendation records so the results pages can
// be worked on without an oracle or catalog key.
package seeds

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/watching-app/watching/internal/domain"
	"github.com/watching-app/watching/internal/logging"
)

type Store interface {
	CreateRecommendation(ctx context.Context, rec *domain.RecommendationRecord) error
	GetRecommendation(ctx context.Context, id uuid.UUID) (*domain.RecommendationRecord, error)
}

// namespace makes demo ids stable across runs.
var namespace = uuid.MustParse("9b0f3c56-4a5e-4c1d-8f0e-6b7f2d1a9e33")

// DemoID is the id of the i-th demo record.
func DemoID(i int) uuid.UUID {
	return uuid.NewSHA1(namespace, []byte(fmt.Sprintf("demo-%d", i)))
}

var titles = map[domain.MediaType][]string{
	domain.MediaMovie: {
		"Inception", "Interstellar", "The Matrix", "Arrival", "Dune",
		"Ex Machina", "Blade Runner 2049", "Parasite", "Whiplash", "Prisoners",
		"Sicario", "Zodiac", "Oldboy", "Moonlight", "Gone Girl",
	},
	domain.MediaTV: {
		"Dark", "Severance", "Breaking Bad", "The Wire", "Mindhunter",
		"True Detective", "Fargo", "Westworld", "Black Mirror", "Chernobyl",
		"The Leftovers", "Devs", "Succession", "Mr. Robot", "Station Eleven",
	},
}

// Setup inserts n demo records, skipping any that already exist.
func Setup(ctx context.Context, store Store, n int) error {
	rng := rand.New(rand.NewSource(42))

	created := 0
	for i := range n {
		rec := demoRecord(rng, i)

		_, err := store.GetRecommendation(ctx, rec.ID)
		if err == nil {
			continue
		}
		if !errors.Is(err, domain.ErrRecommendationNotFound) {
			return fmt.Errorf("check demo record %d: %w", i, err)
		}

		if err := store.CreateRecommendation(ctx, rec); err != nil {
			return fmt.Errorf("seed demo record %d: %w", i, err)
		}
		created++
	}

	logging.Info().Int("created", created).Int("requested", n).Msg("seeding complete")
	return nil
}

func demoRecord(rng *rand.Rand, i int) *domain.RecommendationRecord {
	movies := shuffled(rng, titles[domain.MediaMovie])
	shows := shuffled(rng, titles[domain.MediaTV])

	prefs := domain.PreferenceSet{
		Favorites: []domain.TitleRef{
			{ID: 1000 + i, Title: movies[0], MediaType: domain.MediaMovie},
			{ID: 2000 + i, Title: shows[0], MediaType: domain.MediaTV},
		},
		Liked:    []domain.TitleRef{{ID: 3000 + i, Title: movies[1], MediaType: domain.MediaMovie}},
		Disliked: []domain.TitleRef{{ID: 4000 + i, Title: shows[1], MediaType: domain.MediaTV}},
	}
	prefs.Normalize()

	entries := make([]domain.RecommendationEntry, 0, 10)
	for j := range 5 {
		entries = append(entries, demoEntry(rng, movies[2+j], domain.MediaMovie, movies[0]))
	}
	for j := range 5 {
		entries = append(entries, demoEntry(rng, shows[2+j], domain.MediaTV, shows[0]))
	}

	return &domain.RecommendationRecord{
		ID:        DemoID(i),
		Inputs:    prefs,
		Result:    entries,
		CreatedAt: time.Now().UTC().AddDate(0, 0, -rng.Intn(30)),
	}
}

func demoEntry(rng *rand.Rand, title string, mt domain.MediaType, because string) domain.RecommendationEntry {
	reason := fmt.Sprintf("Shares the tone and pacing of %s.", because)

	// one in five demo entries looks like an unresolved catalog lookup
	if rng.Intn(5) == 0 {
		return domain.FallbackEntry(domain.RawCandidate{Title: title, MediaType: mt, Reason: reason})
	}

	year := 1995 + rng.Intn(30)
	date := fmt.Sprintf("%d-%02d-%02d", year, rng.Intn(12)+1, rng.Intn(28)+1)
	return domain.RecommendationEntry{
		Title:       title,
		MediaType:   mt,
		ID:          domain.TMDBID(10000 + rng.Intn(900000)),
		Overview:    fmt.Sprintf("A demo overview for %s.", title),
		ReleaseDate: &date,
		VoteAverage: voteAverage(rng),
		Reason:      reason,
	}
}

// voteAverage skews toward well-rated titles, between 5.0 and 9.5.
func voteAverage(rng *rand.Rand) float64 {
	raw := 1 - math.Pow(rng.Float64(), 2.0)
	return math.Round((5+raw*4.5)*10) / 10
}

func shuffled(rng *rand.Rand, in []string) []string {
	out := append([]string(nil), in...)
	rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}
