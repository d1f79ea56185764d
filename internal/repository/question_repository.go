package repository

import (
	"context"

	"github.com/lshigami/adaptive-survey/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type QuestionRepository interface {
	// CreateIfAbsent inserts question unless the response already has a
	// question at the same position.
	CreateIfAbsent(ctx context.Context, question *model.Question) (created bool, err error)
	FindByID(ctx context.Context, id uint) (*model.Question, error)
	FindByResponseAndPosition(ctx context.Context, responseID uint, position int) (*model.Question, error)
	ListByResponse(ctx context.Context, responseID uint) ([]model.Question, error)
	ListBySurvey(ctx context.Context, surveyID uint) ([]model.Question, error)
	WithTx(tx *gorm.DB) QuestionRepository
}

type questionRepository struct {
	db *gorm.DB
}

func NewQuestionRepository(db *gorm.DB) QuestionRepository {
	return &questionRepository{db: db}
}

func (r *questionRepository) WithTx(tx *gorm.DB) QuestionRepository {
	return &questionRepository{db: tx}
}

func (r *questionRepository) CreateIfAbsent(ctx context.Context, question *model.Question) (bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(question)
	return result.RowsAffected > 0, result.Error
}

func (r *questionRepository) FindByID(ctx context.Context, id uint) (*model.Question, error) {
	var question model.Question
	err := r.db.WithContext(ctx).First(&question, id).Error
	return &question, err
}

func (r *questionRepository) FindByResponseAndPosition(ctx context.Context, responseID uint, position int) (*model.Question, error) {
	var question model.Question
	err := r.db.WithContext(ctx).
		Where("survey_response_id = ? AND position = ?", responseID, position).
		First(&question).Error
	return &question, err
}

func (r *questionRepository) ListByResponse(ctx context.Context, responseID uint) ([]model.Question, error) {
	var questions []model.Question
	err := r.db.WithContext(ctx).
		Where("survey_response_id = ?", responseID).
		Order("position ASC").
		Find(&questions).Error
	return questions, err
}

func (r *questionRepository) ListBySurvey(ctx context.Context, surveyID uint) ([]model.Question, error) {
	var questions []model.Question
	err := r.db.WithContext(ctx).
		Where("survey_id = ?", surveyID).
		Order("position ASC").
		Order("id ASC").
		Find(&questions).Error
	return questions, err
}
