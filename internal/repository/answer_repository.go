package repository

import (
	"context"

	"github.com/lshigami/adaptive-survey/internal/model"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AnswerRepository interface {
	// CreateIfAbsent inserts answer unless the question was already answered
	// within the same response.
	CreateIfAbsent(ctx context.Context, answer *model.Answer) (created bool, err error)
	FindByID(ctx context.Context, id uint) (*model.Answer, error)
	CountByResponse(ctx context.Context, responseID uint) (int64, error)
	ListByResponse(ctx context.Context, responseID uint) ([]model.Answer, error)
	// AttachAnnotation writes processed data once; later calls are no-ops.
	AttachAnnotation(ctx context.Context, id uint, data datatypes.JSON) (bool, error)
	WithTx(tx *gorm.DB) AnswerRepository
}

type answerRepository struct {
	db *gorm.DB
}

func NewAnswerRepository(db *gorm.DB) AnswerRepository {
	return &answerRepository{db: db}
}

func (r *answerRepository) WithTx(tx *gorm.DB) AnswerRepository {
	return &answerRepository{db: tx}
}

func (r *answerRepository) CreateIfAbsent(ctx context.Context, answer *model.Answer) (bool, error) {
	result := r.db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(answer)
	return result.RowsAffected > 0, result.Error
}

func (r *answerRepository) FindByID(ctx context.Context, id uint) (*model.Answer, error) {
	var answer model.Answer
	err := r.db.WithContext(ctx).First(&answer, id).Error
	return &answer, err
}

func (r *answerRepository) CountByResponse(ctx context.Context, responseID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Answer{}).
		Where("survey_response_id = ?", responseID).
		Count(&count).Error
	return count, err
}

func (r *answerRepository) ListByResponse(ctx context.Context, responseID uint) ([]model.Answer, error) {
	var answers []model.Answer
	err := r.db.WithContext(ctx).
		Where("survey_response_id = ?", responseID).
		Order("id ASC").
		Find(&answers).Error
	return answers, err
}

func (r *answerRepository) AttachAnnotation(ctx context.Context, id uint, data datatypes.JSON) (bool, error) {
	result := r.db.WithContext(ctx).Model(&model.Answer{}).
		Where("id = ? AND processed_data IS NULL", id).
		Update("processed_data", data)
	return result.RowsAffected > 0, result.Error
}
