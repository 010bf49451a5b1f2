package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/watching-app/watching/internal/auth"
	"github.com/watching-app/watching/internal/domain"
	"github.com/watching-app/watching/internal/handler"
	"github.com/watching-app/watching/internal/ratelimit"
	"github.com/watching-app/watching/internal/service"
)

type stubPipeline struct{ runs int }

func (s *stubPipeline) Run(context.Context, domain.PreferenceSet) (*service.RunResult, error) {
	s.runs++
	return &service.RunResult{ID: uuid.New(), Entries: []domain.RecommendationEntry{}, Persisted: true}, nil
}

func (s *stubPipeline) Get(context.Context, uuid.UUID) (*domain.RecommendationRecord, error) {
	return nil, domain.ErrRecommendationNotFound
}

type stubBrowser struct{}

func (stubBrowser) Search(context.Context, string) ([]domain.CatalogTitle, error) { return nil, nil }
func (stubBrowser) Popular(context.Context) ([]domain.CatalogTitle, error)        { return nil, nil }
func (stubBrowser) Similar(context.Context, domain.MediaType, int) ([]domain.CatalogTitle, error) {
	return nil, nil
}

type countingStore struct{ n int }

func (c *countingStore) Take(_ context.Context, _ string, now time.Time, _ time.Duration, limit int) (bool, time.Time, error) {
	if c.n >= limit {
		return false, now, nil
	}
	c.n++
	return true, time.Time{}, nil
}

func setup(t *testing.T, verifier *auth.Verifier, limit int) (http.Handler, *stubPipeline) {
	t.Helper()
	p := &stubPipeline{}
	h := handler.NewHandler(p, stubBrowser{}, nil)
	limiter := ratelimit.New(&countingStore{}, limit, time.Hour)
	return Setup(h, verifier, limiter, Options{
		RequestTimeout: 5 * time.Second,
		CORSOrigins:    []string{"http://localhost:3000"},
	}), p
}

func post(h http.Handler, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/ai-recommendations", strings.NewReader(`{"selectedMovies":[{"id":1,"title":"Inception","media_type":"movie"}]}`))
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestPipelineRequiresAuth(t *testing.T) {
	h, p := setup(t, auth.NewVerifier(auth.Options{Secret: "s"}), 5)

	if rec := post(h, ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if p.runs != 0 {
		t.Error("pipeline must not run for unauthenticated requests")
	}
}

func TestPipelineRateLimited(t *testing.T) {
	h, p := setup(t, auth.NewVerifier(auth.Options{Disabled: true}), 2)

	for i := 0; i < 2; i++ {
		if rec := post(h, ""); rec.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i+1, rec.Code)
		}
	}
	rec := post(h, "")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After")
	}
	if p.runs != 2 {
		t.Errorf("expected 2 pipeline runs, got %d", p.runs)
	}
}

func TestRetrievalIsPublic(t *testing.T) {
	h, _ := setup(t, auth.NewVerifier(auth.Options{Secret: "s"}), 5)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/recommendation/"+uuid.NewString(), nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 without auth, got %d", rec.Code)
	}
}

func TestMetricsAndHealth(t *testing.T) {
	h, _ := setup(t, auth.NewVerifier(auth.Options{Disabled: true}), 5)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from /metrics, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 from /health, got %d", rec.Code)
	}
}
