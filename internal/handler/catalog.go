package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/watching-app/watching/internal/domain"
	"github.com/watching-app/watching/internal/logging"
)

// GET /api/search?query=
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	titles, err := h.browse.Search(r.Context(), r.URL.Query().Get("query"))
	if err != nil {
		h.catalogError(w, r, err, "Failed to search catalog")
		return
	}
	writeJSON(w, http.StatusOK, ResultsResponse{Results: titles})
}

// GET /api/popular
func (h *Handler) Popular(w http.ResponseWriter, r *http.Request) {
	titles, err := h.browse.Popular(r.Context())
	if err != nil {
		h.catalogError(w, r, err, "Failed to fetch popular titles")
		return
	}
	writeJSON(w, http.StatusOK, ResultsResponse{Results: titles})
}

// GET /api/recommendations?id=&type=
func (h *Handler) Similar(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	id, err := strconv.Atoi(q.Get("id"))
	mt, ok := domain.ParseMediaType(q.Get("type"))
	if err != nil || !ok {
		writeError(w, http.StatusBadRequest, "Missing id or type parameter", "")
		return
	}

	titles, err := h.browse.Similar(r.Context(), mt, id)
	if err != nil {
		h.catalogError(w, r, err, "Failed to fetch recommendations")
		return
	}
	writeJSON(w, http.StatusOK, ResultsResponse{Results: titles})
}

func (h *Handler) catalogError(w http.ResponseWriter, r *http.Request, err error, message string) {
	if errors.Is(err, domain.ErrValidation) {
		writeError(w, http.StatusBadRequest, validationDetails(err), "")
		return
	}
	logging.Ctx(r.Context()).Error().Err(err).Msg("catalog request failed")
	writeError(w, http.StatusBadGateway, message, "")
}
