package handler

import (
	"github.com/google/uuid"

	"github.com/watching-app/watching/internal/domain"
)

type RecommendationResponse struct {
	Recommendations []domain.RecommendationEntry `json:"recommendations"`
	Count           int                          `json:"count"`
	ID              uuid.UUID                    `json:"id"`
	Persisted       bool                         `json:"persisted"`
}

type ResultsResponse struct {
	Results []domain.CatalogTitle `json:"results"`
}

type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
