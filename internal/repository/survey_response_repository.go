package repository

import (
	"context"
	"time"

	"github.com/lshigami/adaptive-survey/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SurveyResponseRepository interface {
	FindByID(ctx context.Context, id uint) (*model.SurveyResponse, error)
	FindBySurveyAndRespondent(ctx context.Context, surveyID uint, respondentID string) (*model.SurveyResponse, error)
	// CreateIfAbsent inserts response unless one already exists for the same
	// (survey, respondent); created reports which happened.
	CreateIfAbsent(ctx context.Context, response *model.SurveyResponse) (created bool, err error)
	// MarkCompleted sets completed_at only if it is still unset.
	MarkCompleted(ctx context.Context, id uint, at time.Time) (bool, error)
	// FindCompletedWithAnswers loads completed responses with their answers
	// and each answer's question.
	FindCompletedWithAnswers(ctx context.Context, surveyID uint) ([]model.SurveyResponse, error)
	WithTx(tx *gorm.DB) SurveyResponseRepository
}

type surveyResponseRepository struct {
	db *gorm.DB
}

func NewSurveyResponseRepository(db *gorm.DB) SurveyResponseRepository {
	return &surveyResponseRepository{db: db}
}

func (r *surveyResponseRepository) WithTx(tx *gorm.DB) SurveyResponseRepository {
	return &surveyResponseRepository{db: tx}
}

func (r *surveyResponseRepository) FindByID(ctx context.Context, id uint) (*model.SurveyResponse, error) {
	var response model.SurveyResponse
	err := r.db.WithContext(ctx).First(&response, id).Error
	return &response, err
}

func (r *surveyResponseRepository) FindBySurveyAndRespondent(ctx context.Context, surveyID uint, respondentID string) (*model.SurveyResponse, error) {
	var response model.SurveyResponse
	err := r.db.WithContext(ctx).
		Where("survey_id = ? AND respondent_id = ?", surveyID, respondentID).
		First(&response).Error
	return &response, err
}

func (r *surveyResponseRepository) CreateIfAbsent(ctx context.Context, response *model.SurveyResponse) (bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(response)
	return result.RowsAffected > 0, result.Error
}

func (r *surveyResponseRepository) MarkCompleted(ctx context.Context, id uint, at time.Time) (bool, error) {
	result := r.db.WithContext(ctx).Model(&model.SurveyResponse{}).
		Where("id = ? AND completed_at IS NULL", id).
		Update("completed_at", at)
	return result.RowsAffected > 0, result.Error
}

func (r *surveyResponseRepository) FindCompletedWithAnswers(ctx context.Context, surveyID uint) ([]model.SurveyResponse, error) {
	var responses []model.SurveyResponse
	err := r.db.WithContext(ctx).
		Preload("Answers", func(db *gorm.DB) *gorm.DB {
			return db.Order("answers.id ASC")
		}).
		Preload("Answers.Question").
		Where("survey_id = ? AND completed_at IS NOT NULL", surveyID).
		Order("completed_at ASC").
		Order("id ASC").
		Find(&responses).Error
	return responses, err
}
