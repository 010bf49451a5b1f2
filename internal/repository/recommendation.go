package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/watching-app/watching/internal/domain"
)

// CreateRecommendation inserts rec. Records are written once and never updated.
func (r *Repository) CreateRecommendation(ctx context.Context, rec *domain.RecommendationRecord) error {
	inputs, result, err := encodeRecord(rec)
	if err != nil {
		return err
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO recommendations (id, inputs, result, created_at)
		 VALUES ($1, $2, $3, $4)`,
		rec.ID, inputs, result, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert recommendation %s: %w", rec.ID, err)
	}
	return nil
}

func (r *Repository) GetRecommendation(ctx context.Context, id uuid.UUID) (*domain.RecommendationRecord, error) {
	rec := &domain.RecommendationRecord{}
	var inputs, result []byte

	err := r.pool.QueryRow(ctx,
		`SELECT id, inputs, result, created_at
		 FROM recommendations WHERE id = $1`,
		id,
	).Scan(&rec.ID, &inputs, &result, &rec.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRecommendationNotFound
		}
		return nil, fmt.Errorf("query recommendation %s: %w", id, err)
	}

	if err := decodeRecord(rec, inputs, result); err != nil {
		return nil, err
	}
	return rec, nil
}

func encodeRecord(rec *domain.RecommendationRecord) ([]byte, []byte, error) {
	inputs, err := json.Marshal(rec.Inputs)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal recommendation inputs: %w", err)
	}
	result, err := json.Marshal(rec.Result)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal recommendation result: %w", err)
	}
	return inputs, result, nil
}

func decodeRecord(rec *domain.RecommendationRecord, inputs, result []byte) error {
	if err := json.Unmarshal(inputs, &rec.Inputs); err != nil {
		return fmt.Errorf("unmarshal recommendation %s inputs: %w", rec.ID, err)
	}
	if err := json.Unmarshal(result, &rec.Result); err != nil {
		return fmt.Errorf("unmarshal recommendation %s result: %w", rec.ID, err)
	}
	rec.Inputs.Normalize()
	if rec.Result == nil {
		rec.Result = []domain.RecommendationEntry{}
	}
	return nil
}
