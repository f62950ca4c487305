package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"voicecmd/model"
)

const (
	defaultRecentLimit = 20
	maxRecentLimit     = 200
)

// PredictionRepository stores the history of served predictions.
type PredictionRepository interface {
	Record(ctx context.Context, rec *model.PredictionRecord) error
	GetByID(ctx context.Context, id int64) (*model.PredictionRecord, error)
	Recent(ctx context.Context, limit int) ([]*model.PredictionRecord, error)
	CountByLabel(ctx context.Context) (map[string]int64, error)
}

type gormPredictionRepository struct {
	db *gorm.DB
}

// NewGormPredictionRepository creates a repository on db.
func NewGormPredictionRepository(db *gorm.DB) PredictionRepository {
	return &gormPredictionRepository{db: db}
}

func (r *gormPredictionRepository) Record(ctx context.Context, rec *model.PredictionRecord) error {
	return r.db.WithContext(ctx).Create(rec).Error
}

// GetByID returns nil, nil when no record has id.
func (r *gormPredictionRepository) GetByID(ctx context.Context, id int64) (*model.PredictionRecord, error) {
	var rec model.PredictionRecord
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Recent returns the newest records first.
func (r *gormPredictionRepository) Recent(ctx context.Context, limit int) ([]*model.PredictionRecord, error) {
	var recs []*model.PredictionRecord
	err := recentQuery(r.db.WithContext(ctx), limit).Find(&recs).Error
	return recs, err
}

func recentQuery(tx *gorm.DB, limit int) *gorm.DB {
	return tx.Model(&model.PredictionRecord{}).
		Order("created_at DESC, id DESC").
		Limit(clampLimit(limit))
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return defaultRecentLimit
	case limit > maxRecentLimit:
		return maxRecentLimit
	default:
		return limit
	}
}

type labelCount struct {
	Label string
	Total int64
}

func (r *gormPredictionRepository) CountByLabel(ctx context.Context) (map[string]int64, error) {
	var rows []labelCount
	err := r.db.WithContext(ctx).Model(&model.PredictionRecord{}).
		Select("label, COUNT(*) AS total").
		Group("label").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Label] = row.Total
	}
	return counts, nil
}
