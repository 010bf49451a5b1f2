package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// NoOverview is the overview of an entry the catalog could not describe.
const NoOverview = "No overview available"

const localIDPrefix = "local-"

// RawCandidate is one title suggested by the oracle, before catalog resolution.
type RawCandidate struct {
	Title     string    `json:"title" validate:"required"`
	MediaType MediaType `json:"media_type" validate:"oneof=movie tv"`
	Reason    string    `json:"reason"`
}

// CatalogID is either a catalog (TMDB) id or a locally generated fallback token.
// Catalog ids encode as JSON numbers, local tokens as strings.
type CatalogID struct {
	TMDB  int
	Local string
}

func TMDBID(id int) CatalogID {
	return CatalogID{TMDB: id}
}

// NewLocalID returns a fresh non-catalog id of the form "local-<uuid>".
func NewLocalID() CatalogID {
	return CatalogID{Local: localIDPrefix + uuid.NewString()}
}

func (c CatalogID) IsLocal() bool {
	return c.Local != ""
}

func (c CatalogID) String() string {
	if c.IsLocal() {
		return c.Local
	}
	return strconv.Itoa(c.TMDB)
}

func (c CatalogID) MarshalJSON() ([]byte, error) {
	if c.IsLocal() {
		return json.Marshal(c.Local)
	}
	return []byte(strconv.Itoa(c.TMDB)), nil
}

func (c *CatalogID) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if !strings.HasPrefix(s, localIDPrefix) {
			return fmt.Errorf("catalog id %q: missing %q prefix", s, localIDPrefix)
		}
		*c = CatalogID{Local: s}
		return nil
	}
	var id int
	if err := json.Unmarshal(data, &id); err != nil {
		return err
	}
	*c = CatalogID{TMDB: id}
	return nil
}

// RecommendationEntry is a candidate after catalog resolution.
type RecommendationEntry struct {
	Title       string    `json:"title"`
	MediaType   MediaType `json:"media_type"`
	ID          CatalogID `json:"id"`
	PosterPath  *string   `json:"poster_path"`
	Overview    string    `json:"overview"`
	ReleaseDate *string   `json:"release_date"`
	VoteAverage float64   `json:"vote_average"`
	Reason      string    `json:"reason"`
}

// FallbackEntry describes a candidate the catalog could not resolve.
func FallbackEntry(c RawCandidate) RecommendationEntry {
	return RecommendationEntry{
		Title:     c.Title,
		MediaType: c.MediaType,
		ID:        NewLocalID(),
		Overview:  NoOverview,
		Reason:    c.Reason,
	}
}

// RecommendationRecord is the persisted unit. Records are never updated.
type RecommendationRecord struct {
	ID        uuid.UUID             `json:"id"`
	Inputs    PreferenceSet         `json:"inputs"`
	Result    []RecommendationEntry `json:"result"`
	CreatedAt time.Time             `json:"created_at"`
}
