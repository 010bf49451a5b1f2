package ratelimit

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type memoryStore struct {
	mu      sync.Mutex
	keys    map[string][]time.Time
	err     error
	latency time.Duration
}

func newMemoryStore() *memoryStore {
	return &memoryStore{keys: map[string][]time.Time{}}
}

func (m *memoryStore) Take(_ context.Context, key string, now time.Time, window time.Duration, limit int) (bool, time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, time.Time{}, m.err
	}
	time.Sleep(m.latency)

	since := now.Add(-window)
	var kept []time.Time
	for _, t := range m.keys[key] {
		if !t.Before(since) {
			kept = append(kept, t)
		}
	}
	if len(kept) >= limit {
		m.keys[key] = kept
		var oldest time.Time
		if len(kept) > 0 {
			oldest = kept[0]
		}
		return false, oldest, nil
	}
	m.keys[key] = append(kept, now)
	return true, time.Time{}, nil
}

func TestAllowSlidingWindow(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	l := New(newMemoryStore(), 2, time.Hour)
	l.now = func() time.Time { return now }

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if ok, _ := l.Allow(ctx, "alice"); !ok {
			t.Fatalf("request %d should be allowed", i+1)
		}
		now = now.Add(10 * time.Minute)
	}

	ok, retry := l.Allow(ctx, "alice")
	if ok {
		t.Fatal("third request should be limited")
	}
	// oldest at 12:00, now 12:20, window 1h
	if retry != 40*time.Minute {
		t.Errorf("expected 40m retry, got %s", retry)
	}

	if ok, _ := l.Allow(ctx, "bob"); !ok {
		t.Error("other identities have their own window")
	}

	now = now.Add(41 * time.Minute)
	if ok, _ := l.Allow(ctx, "alice"); !ok {
		t.Error("request should be allowed after the oldest entry ages out")
	}
}

func TestAllowConcurrentRequestsRespectLimit(t *testing.T) {
	store := newMemoryStore()
	store.latency = 5 * time.Millisecond
	l := New(store, 5, time.Hour)

	var (
		wg      sync.WaitGroup
		allowed atomic.Int32
	)
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := l.Allow(context.Background(), "user:alice"); ok {
				allowed.Add(1)
			}
		}()
	}
	wg.Wait()

	if got := allowed.Load(); got != 5 {
		t.Errorf("expected 5 of 20 concurrent requests allowed, got %d", got)
	}
}

func TestRetryDefaultsToWindowWithoutOldest(t *testing.T) {
	l := New(newMemoryStore(), 0, time.Hour)
	ok, retry := l.Allow(context.Background(), "alice")
	if ok {
		t.Fatal("limit 0 should reject")
	}
	if retry != time.Hour {
		t.Errorf("expected 1h retry, got %s", retry)
	}
}

func TestAllowFailsOpen(t *testing.T) {
	store := newMemoryStore()
	store.err = errors.New("connection refused")
	l := New(store, 1, time.Hour)

	for i := 0; i < 3; i++ {
		if ok, _ := l.Allow(context.Background(), "alice"); !ok {
			t.Fatal("store errors must not block requests")
		}
	}
}

func TestNilStoreDisablesLimiting(t *testing.T) {
	l := New(nil, 0, time.Hour)
	if ok, _ := l.Allow(context.Background(), "x"); !ok {
		t.Error("nil store should allow")
	}
}

func TestMiddlewareRejectsWith429(t *testing.T) {
	l := New(newMemoryStore(), 1, time.Hour)
	h := l.Middleware(func(r *http.Request) string { return "ip:1.2.3.4" })(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/ai-recommendations", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/ai-recommendations", nil))
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After header")
	}
}
