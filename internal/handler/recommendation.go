package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/watching-app/watching/internal/domain"
	"github.com/watching-app/watching/internal/logging"
	"github.com/watching-app/watching/internal/model"
)

// POST /api/ai-recommendations
func (h *Handler) CreateRecommendations(w http.ResponseWriter, r *http.Request) {
	var prefs domain.PreferenceSet
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&prefs); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	result, err := h.pipeline.Run(r.Context(), prefs)
	if err != nil {
		log := logging.Ctx(r.Context())
		switch {
		case errors.Is(err, domain.ErrValidation):
			writeError(w, http.StatusBadRequest, "Invalid preferences", validationDetails(err))
		// Request timeout
		case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
			log.Warn().Err(err).Msg("recommendation request timed out")
			writeError(w, http.StatusServiceUnavailable, "Request timed out, please try again", "")
		case errors.Is(err, domain.ErrMalformedRecommendation):
			log.Error().Err(err).Msg("unusable model output")
			writeError(w, http.StatusInternalServerError, "Failed to parse AI recommendations", "")
		// Only oracle transport failures are echoed back as details.
		case model.IsInferenceError(err):
			log.Error().Err(err).Msg("oracle request failed")
			writeError(w, http.StatusInternalServerError, "Failed to generate recommendations", err.Error())
		case errors.Is(err, domain.ErrUpstreamGeneration):
			log.Error().Err(err).Msg("recommendation generation failed")
			writeError(w, http.StatusInternalServerError, "Failed to generate recommendations", "")
		default:
			log.Error().Err(err).Msg("recommendation pipeline failed")
			writeError(w, http.StatusInternalServerError, "Failed to generate recommendations", "")
		}
		return
	}

	writeJSON(w, http.StatusOK, RecommendationResponse{
		Recommendations: result.Entries,
		Count:           len(result.Entries),
		ID:              result.ID,
		Persisted:       result.Persisted,
	})
}

// GET /api/recommendation/{id}
func (h *Handler) GetRecommendation(w http.ResponseWriter, r *http.Request) {
	raw := strings.TrimSpace(chi.URLParam(r, "id"))
	if raw == "" {
		writeError(w, http.StatusBadRequest, "ID is required", "")
		return
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid recommendation id", "")
		return
	}

	rec, err := h.pipeline.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrRecommendationNotFound) {
			writeError(w, http.StatusNotFound, "Recommendation not found", "")
			return
		}
		logging.Ctx(r.Context()).Error().Err(err).Str("id", raw).Msg("failed to fetch recommendation")
		writeError(w, http.StatusInternalServerError, "Failed to fetch recommendation", "")
		return
	}

	writeJSON(w, http.StatusOK, rec)
}

// validationDetails drops the sentinel prefix so clients see only the field messages.
func validationDetails(err error) string {
	return strings.TrimPrefix(err.Error(), domain.ErrValidation.Error()+": ")
}
