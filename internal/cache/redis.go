package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"github.com/watching-app/watching/internal/domain"
)

const defaultTTL = 6 * time.Hour

// Cache keeps catalog search results so repeated candidate titles skip the catalog.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Cache{client: client, ttl: ttl}
}

func buildKey(mt domain.MediaType, query string) string {
	return fmt.Sprintf("catalog:search:%s:%s", mt, strings.ToLower(strings.TrimSpace(query)))
}

// GetSearch returns cached results. A miss is (nil, false, nil).
func (c *Cache) GetSearch(ctx context.Context, mt domain.MediaType, query string) ([]domain.CatalogTitle, bool, error) {
	key := buildKey(mt, query)
	val, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get catalog search from cache: %w", err)
	}

	var titles []domain.CatalogTitle
	if err := json.Unmarshal(val, &titles); err != nil {
		return nil, false, fmt.Errorf("unmarshal catalog search %s: %w", key, err)
	}
	return titles, true, nil
}

func (c *Cache) SetSearch(ctx context.Context, mt domain.MediaType, query string, titles []domain.CatalogTitle) error {
	key := buildKey(mt, query)
	val, err := json.Marshal(titles)
	if err != nil {
		return fmt.Errorf("marshal catalog search: %w", err)
	}

	if err := c.client.Set(ctx, key, val, c.ttl).Err(); err != nil {
		return fmt.Errorf("set catalog search in cache: %w", err)
	}
	return nil
}

func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
