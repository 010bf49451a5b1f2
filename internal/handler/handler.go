package handler

import (
	"context"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/watching-app/watching/internal/domain"
	"github.com/watching-app/watching/internal/logging"
	"github.com/watching-app/watching/internal/service"
)

const maxBodyBytes = 1 << 20

type Pipeline interface {
	Run(ctx context.Context, prefs domain.PreferenceSet) (*service.RunResult, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.RecommendationRecord, error)
}

type Browser interface {
	Search(ctx context.Context, query string) ([]domain.CatalogTitle, error)
	Popular(ctx context.Context) ([]domain.CatalogTitle, error)
	Similar(ctx context.Context, mt domain.MediaType, id int) ([]domain.CatalogTitle, error)
}

// Pinger is a dependency checked by /health.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	pipeline Pipeline
	browse   Browser
	checks   map[string]Pinger
}

// NewHandler builds the HTTP handlers. checks maps dependency names to their
// health probes.
func NewHandler(pipeline Pipeline, browse Browser, checks map[string]Pinger) *Handler {
	return &Handler{pipeline: pipeline, browse: browse, checks: checks}
}

// write JSON response
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Debug().Err(err).Msg("write response")
	}
}

// writes JSON error response.
func writeError(w http.ResponseWriter, status int, message, details string) {
	writeJSON(w, status, ErrorResponse{
		Error:   message,
		Details: details,
	})
}
