package repository

import (
	"context"

	"github.com/lshigami/adaptive-survey/internal/model"
	"gorm.io/gorm"
)

// SurveyWithCounts is a dashboard row.
type SurveyWithCounts struct {
	model.Survey
	ResponseCount  int64
	CompletedCount int64
	InsightCount   int64
}

type SurveyRepository interface {
	Create(ctx context.Context, survey *model.Survey) error
	FindByID(ctx context.Context, id uint) (*model.Survey, error)
	FindByOwnerWithCounts(ctx context.Context, ownerID uint) ([]SurveyWithCounts, error)
	UpdateActive(ctx context.Context, id uint, active bool) error
	WithTx(tx *gorm.DB) SurveyRepository
}

type surveyRepository struct {
	db *gorm.DB
}

func NewSurveyRepository(db *gorm.DB) SurveyRepository {
	return &surveyRepository{db: db}
}

func (r *surveyRepository) WithTx(tx *gorm.DB) SurveyRepository {
	return &surveyRepository{db: tx}
}

func (r *surveyRepository) Create(ctx context.Context, survey *model.Survey) error {
	return r.db.WithContext(ctx).Create(survey).Error
}

func (r *surveyRepository) FindByID(ctx context.Context, id uint) (*model.Survey, error) {
	var survey model.Survey
	err := r.db.WithContext(ctx).First(&survey, id).Error
	return &survey, err
}

func (r *surveyRepository) FindByOwnerWithCounts(ctx context.Context, ownerID uint) ([]SurveyWithCounts, error) {
	var results []SurveyWithCounts
	err := r.db.WithContext(ctx).Model(&model.Survey{}).
		Select(`surveys.*,
			(SELECT COUNT(*) FROM survey_responses WHERE survey_responses.survey_id = surveys.id) AS response_count,
			(SELECT COUNT(*) FROM survey_responses WHERE survey_responses.survey_id = surveys.id AND survey_responses.completed_at IS NOT NULL) AS completed_count,
			(SELECT COUNT(*) FROM insights WHERE insights.survey_id = surveys.id) AS insight_count`).
		Where("surveys.user_id = ? AND surveys.deleted_at IS NULL", ownerID).
		Order("surveys.created_at DESC").
		Order("surveys.id DESC").
		Scan(&results).Error
	return results, err
}

func (r *surveyRepository) UpdateActive(ctx context.Context, id uint, active bool) error {
	return r.db.WithContext(ctx).Model(&model.Survey{}).Where("id = ?", id).Update("active", active).Error
}
