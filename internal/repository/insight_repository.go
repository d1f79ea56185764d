package repository

import (
	"context"

	"github.com/lshigami/adaptive-survey/internal/model"
	"gorm.io/gorm"
)

type InsightRepository interface {
	CreateBatch(ctx context.Context, insights []model.Insight) error
	// ListBySurvey returns every insight in insertion order.
	ListBySurvey(ctx context.Context, surveyID uint) ([]model.Insight, error)
	CountBySurvey(ctx context.Context, surveyID uint) (int64, error)
	WithTx(tx *gorm.DB) InsightRepository
}

type insightRepository struct {
	db *gorm.DB
}

func NewInsightRepository(db *gorm.DB) InsightRepository {
	return &insightRepository{db: db}
}

func (r *insightRepository) WithTx(tx *gorm.DB) InsightRepository {
	return &insightRepository{db: tx}
}

func (r *insightRepository) CreateBatch(ctx context.Context, insights []model.Insight) error {
	if len(insights) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&insights).Error
}

func (r *insightRepository) ListBySurvey(ctx context.Context, surveyID uint) ([]model.Insight, error) {
	var insights []model.Insight
	err := r.db.WithContext(ctx).
		Where("survey_id = ?", surveyID).
		Order("id ASC").
		Find(&insights).Error
	return insights, err
}

func (r *insightRepository) CountBySurvey(ctx context.Context, surveyID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Insight{}).Where("survey_id = ?", surveyID).Count(&count).Error
	return count, err
}
