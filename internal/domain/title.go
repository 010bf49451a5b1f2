package domain

import (
	"strings"

	"github.com/goccy/go-json"
)

type MediaType string

const (
	MediaMovie MediaType = "movie"
	MediaTV    MediaType = "tv"
)

func (m MediaType) Valid() bool {
	return m == MediaMovie || m == MediaTV
}

// ParseMediaType lower-cases and trims s. ok is false for anything other than movie or tv.
func ParseMediaType(s string) (MediaType, bool) {
	m := MediaType(strings.ToLower(strings.TrimSpace(s)))
	return m, m.Valid()
}

// TitleRef identifies a work as the client knows it. Catalog payloads carry either
// "title" (movies) or "name" (tv); both land in Title on decode.
type TitleRef struct {
	ID        int       `json:"id" validate:"gte=0"`
	Title     string    `json:"title" validate:"required"`
	MediaType MediaType `json:"media_type" validate:"oneof=movie tv"`
}

func (t *TitleRef) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID        int    `json:"id"`
		Title     string `json:"title"`
		Name      string `json:"name"`
		MediaType string `json:"media_type"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	t.ID = raw.ID
	t.Title = strings.TrimSpace(raw.Title)
	if t.Title == "" {
		t.Title = strings.TrimSpace(raw.Name)
	}
	t.MediaType = MediaType(strings.ToLower(strings.TrimSpace(raw.MediaType)))
	return nil
}

// PreferenceSet is the pipeline input. Favorites must be non-empty; the other
// lists default to empty.
type PreferenceSet struct {
	Favorites  []TitleRef `json:"selectedMovies" validate:"required,min=1,max=10,dive"`
	Liked      []TitleRef `json:"likedMovies" validate:"dive"`
	Disliked   []TitleRef `json:"dislikedMovies" validate:"dive"`
	NotWatched []TitleRef `json:"notWatchedMovies" validate:"dive"`
}

// Normalize replaces nil lists with empty ones so they serialize as [].
func (p *PreferenceSet) Normalize() {
	if p.Favorites == nil {
		p.Favorites = []TitleRef{}
	}
	if p.Liked == nil {
		p.Liked = []TitleRef{}
	}
	if p.Disliked == nil {
		p.Disliked = []TitleRef{}
	}
	if p.NotWatched == nil {
		p.NotWatched = []TitleRef{}
	}
}
