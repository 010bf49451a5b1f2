package domain

// CatalogTitle is one catalog search or listing hit, already normalized:
// Title holds the movie title or the show name, ReleaseDate the release or
// first-air date. Empty poster and date strings are nil.
type CatalogTitle struct {
	ID          int       `json:"id"`
	Title       string    `json:"title"`
	MediaType   MediaType `json:"media_type"`
	PosterPath  *string   `json:"poster_path"`
	Overview    string    `json:"overview"`
	ReleaseDate *string   `json:"release_date"`
	VoteAverage float64   `json:"vote_average"`
}

// Entry turns a matched catalog title into a recommendation carrying reason.
func (t CatalogTitle) Entry(reason string) RecommendationEntry {
	overview := t.Overview
	if overview == "" {
		overview = NoOverview
	}
	return RecommendationEntry{
		Title:       t.Title,
		MediaType:   t.MediaType,
		ID:          TMDBID(t.ID),
		PosterPath:  t.PosterPath,
		Overview:    overview,
		ReleaseDate: t.ReleaseDate,
		VoteAverage: t.VoteAverage,
		Reason:      reason,
	}
}
