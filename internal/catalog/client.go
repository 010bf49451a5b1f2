// Package catalog is a small TMDB v3 client. Every request goes through a
// circuit breaker so a failing catalog is skipped quickly instead of stalling
// each lookup until its timeout.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/watching-app/watching/internal/domain"
)

const DefaultBaseURL = "https://api.themoviedb.org/3"

type Options struct {
	BaseURL  string
	APIKey   string
	Language string
	Timeout  time.Duration
	Breaker  BreakerConfig
}

type Client struct {
	baseURL    string
	apiKey     string
	language   string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[[]byte]
}

func NewClient(opts Options) *Client {
	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	return &Client{
		baseURL:    base,
		apiKey:     opts.APIKey,
		language:   opts.Language,
		httpClient: &http.Client{Timeout: opts.Timeout},
		breaker:    newBreaker(opts.Breaker),
	}
}

// StatusError is a non-2xx catalog response.
type StatusError struct {
	Path   string
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("catalog %s: unexpected status %d", e.Path, e.Status)
}

// result is the union of the movie and tv shapes TMDB returns.
type result struct {
	ID           int     `json:"id"`
	Title        string  `json:"title"`
	Name         string  `json:"name"`
	MediaType    string  `json:"media_type"`
	PosterPath   string  `json:"poster_path"`
	Overview     string  `json:"overview"`
	ReleaseDate  string  `json:"release_date"`
	FirstAirDate string  `json:"first_air_date"`
	VoteAverage  float64 `json:"vote_average"`
}

type page struct {
	Results []result `json:"results"`
}

func (r result) normalize(mt domain.MediaType) domain.CatalogTitle {
	title := r.Title
	if title == "" {
		title = r.Name
	}
	date := r.ReleaseDate
	if date == "" {
		date = r.FirstAirDate
	}
	return domain.CatalogTitle{
		ID:          r.ID,
		Title:       title,
		MediaType:   mt,
		PosterPath:  optional(r.PosterPath),
		Overview:    r.Overview,
		ReleaseDate: optional(date),
		VoteAverage: r.VoteAverage,
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Search looks up titles of one media type.
func (c *Client) Search(ctx context.Context, mt domain.MediaType, query string) ([]domain.CatalogTitle, error) {
	q := url.Values{}
	q.Set("query", query)
	q.Set("include_adult", "false")
	q.Set("page", "1")

	var p page
	if err := c.get(ctx, "/search/"+string(mt), q, &p); err != nil {
		return nil, err
	}
	return tag(p.Results, mt), nil
}

// SearchMulti searches movies and shows together, dropping people and any
// other result kinds.
func (c *Client) SearchMulti(ctx context.Context, query string) ([]domain.CatalogTitle, error) {
	q := url.Values{}
	q.Set("query", query)
	q.Set("include_adult", "false")
	q.Set("page", "1")

	var p page
	if err := c.get(ctx, "/search/multi", q, &p); err != nil {
		return nil, err
	}

	out := make([]domain.CatalogTitle, 0, len(p.Results))
	for _, r := range p.Results {
		mt, ok := domain.ParseMediaType(r.MediaType)
		if !ok {
			continue
		}
		out = append(out, r.normalize(mt))
	}
	return out, nil
}

func (c *Client) TopRated(ctx context.Context, mt domain.MediaType) ([]domain.CatalogTitle, error) {
	var p page
	if err := c.get(ctx, "/"+string(mt)+"/top_rated", url.Values{"page": {"1"}}, &p); err != nil {
		return nil, err
	}
	return tag(p.Results, mt), nil
}

// Similar returns the catalog's own recommendations for one title.
func (c *Client) Similar(ctx context.Context, mt domain.MediaType, id int) ([]domain.CatalogTitle, error) {
	var p page
	path := "/" + string(mt) + "/" + strconv.Itoa(id) + "/recommendations"
	if err := c.get(ctx, path, url.Values{"page": {"1"}}, &p); err != nil {
		return nil, err
	}
	return tag(p.Results, mt), nil
}

func tag(results []result, mt domain.MediaType) []domain.CatalogTitle {
	out := make([]domain.CatalogTitle, 0, len(results))
	for _, r := range results {
		out = append(out, r.normalize(mt))
	}
	return out
}

func (c *Client) get(ctx context.Context, path string, q url.Values, dst any) error {
	body, err := c.breaker.Execute(func() ([]byte, error) {
		return c.fetch(ctx, path, q)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return fmt.Errorf("catalog %s: %w", path, err)
		}
		return err
	}

	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("decode catalog %s: %w", path, err)
	}
	return nil
}

func (c *Client) fetch(ctx context.Context, path string, q url.Values) ([]byte, error) {
	q.Set("api_key", c.apiKey)
	if c.language != "" {
		q.Set("language", c.language)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build catalog request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Path: path, Status: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	return body, nil
}
