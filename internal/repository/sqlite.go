package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/watching-app/watching/internal/domain"
)

// recommendationRow is the SQLite shape of a record; JSON columns are text.
type recommendationRow struct {
	ID        string    `gorm:"primaryKey;type:text"`
	Inputs    string    `gorm:"type:text;not null"`
	Result    string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"not null;index"`
}

func (recommendationRow) TableName() string {
	return "recommendations"
}

type SQLiteRepository struct {
	db *gorm.DB
}

// OpenSQLite opens (creating if needed) the database at path and migrates it.
func OpenSQLite(path string) (*SQLiteRepository, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	if err := db.AutoMigrate(&recommendationRow{}); err != nil {
		return nil, fmt.Errorf("migrate sqlite: %w", err)
	}
	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) CreateRecommendation(ctx context.Context, rec *domain.RecommendationRecord) error {
	inputs, result, err := encodeRecord(rec)
	if err != nil {
		return err
	}

	row := recommendationRow{
		ID:        rec.ID.String(),
		Inputs:    string(inputs),
		Result:    string(result),
		CreatedAt: rec.CreatedAt,
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("insert recommendation %s: %w", rec.ID, err)
	}
	return nil
}

func (r *SQLiteRepository) GetRecommendation(ctx context.Context, id uuid.UUID) (*domain.RecommendationRecord, error) {
	var row recommendationRow
	err := r.db.WithContext(ctx).Where("id = ?", id.String()).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrRecommendationNotFound
		}
		return nil, fmt.Errorf("query recommendation %s: %w", id, err)
	}

	rec := &domain.RecommendationRecord{ID: id, CreatedAt: row.CreatedAt.UTC()}
	if err := decodeRecord(rec, []byte(row.Inputs), []byte(row.Result)); err != nil {
		return nil, err
	}
	return rec, nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("sqlite handle: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

func (r *SQLiteRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
