package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/jinzhu/copier"
	"github.com/lshigami/adaptive-survey/internal/dto"
	"github.com/lshigami/adaptive-survey/internal/model"
	"github.com/lshigami/adaptive-survey/internal/repository"
	"github.com/rs/zerolog/log"
)

type SurveyService interface {
	Create(ctx context.Context, ownerID uint, req dto.CreateSurveyRequest) (*dto.SurveyDTO, error)
	ListOwned(ctx context.Context, ownerID uint) ([]dto.SurveySummaryDTO, error)
	Get(ctx context.Context, id uint) (*dto.SurveyDTO, error)
	ListQuestions(ctx context.Context, id uint) ([]dto.QuestionDTO, error)
	SetActive(ctx context.Context, ownerID, surveyID uint, active bool) error
	AuthorizeOwner(ctx context.Context, ownerID, surveyID uint) (*model.Survey, error)
}

type surveyService struct {
	surveyRepo   repository.SurveyRepository
	questionRepo repository.QuestionRepository
}

func NewSurveyService(surveyRepo repository.SurveyRepository, questionRepo repository.QuestionRepository) SurveyService {
	return &surveyService{surveyRepo: surveyRepo, questionRepo: questionRepo}
}

func (s *surveyService) Create(ctx context.Context, ownerID uint, req dto.CreateSurveyRequest) (*dto.SurveyDTO, error) {
	survey := &model.Survey{
		UserID:       ownerID,
		Title:        strings.TrimSpace(req.Title),
		MainQuestion: strings.TrimSpace(req.MainQuestion),
		Description:  strings.TrimSpace(req.Description),
		Active:       true,
	}
	if survey.Title == "" || survey.MainQuestion == "" {
		return nil, fmt.Errorf("title and main question are required: %w", ErrInvalidInput)
	}
	if err := s.surveyRepo.Create(ctx, survey); err != nil {
		return nil, fmt.Errorf("failed to create survey: %w", err)
	}
	log.Info().Uint("surveyID", survey.ID).Uint("ownerID", ownerID).Msg("Create: survey created")

	var out dto.SurveyDTO
	if err := copier.Copy(&out, survey); err != nil {
		return nil, fmt.Errorf("failed to map survey: %w", err)
	}
	return &out, nil
}

func (s *surveyService) ListOwned(ctx context.Context, ownerID uint) ([]dto.SurveySummaryDTO, error) {
	rows, err := s.surveyRepo.FindByOwnerWithCounts(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list surveys for user %d: %w", ownerID, err)
	}
	out := make([]dto.SurveySummaryDTO, 0, len(rows))
	for _, row := range rows {
		summary := dto.SurveySummaryDTO{
			ResponseCount:  row.ResponseCount,
			CompletedCount: row.CompletedCount,
			InsightCount:   row.InsightCount,
		}
		if err := copier.Copy(&summary.SurveyDTO, &row.Survey); err != nil {
			return nil, fmt.Errorf("failed to map survey %d: %w", row.ID, err)
		}
		out = append(out, summary)
	}
	return out, nil
}

func (s *surveyService) Get(ctx context.Context, id uint) (*dto.SurveyDTO, error) {
	survey, err := s.surveyRepo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "survey %d", id)
	}
	var out dto.SurveyDTO
	if err := copier.Copy(&out, survey); err != nil {
		return nil, fmt.Errorf("failed to map survey: %w", err)
	}
	return &out, nil
}

func (s *surveyService) ListQuestions(ctx context.Context, id uint) ([]dto.QuestionDTO, error) {
	if _, err := s.surveyRepo.FindByID(ctx, id); err != nil {
		return nil, notFound(err, "survey %d", id)
	}
	questions, err := s.questionRepo.ListBySurvey(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list questions for survey %d: %w", id, err)
	}
	out := make([]dto.QuestionDTO, 0, len(questions))
	for i := range questions {
		out = append(out, *toQuestionDTO(&questions[i]))
	}
	return out, nil
}

func (s *surveyService) SetActive(ctx context.Context, ownerID, surveyID uint, active bool) error {
	if _, err := s.AuthorizeOwner(ctx, ownerID, surveyID); err != nil {
		return err
	}
	if err := s.surveyRepo.UpdateActive(ctx, surveyID, active); err != nil {
		return fmt.Errorf("failed to update survey %d: %w", surveyID, err)
	}
	log.Info().Uint("surveyID", surveyID).Bool("active", active).Msg("SetActive: survey updated")
	return nil
}

func (s *surveyService) AuthorizeOwner(ctx context.Context, ownerID, surveyID uint) (*model.Survey, error) {
	survey, err := s.surveyRepo.FindByID(ctx, surveyID)
	if err != nil {
		return nil, notFound(err, "survey %d", surveyID)
	}
	if survey.UserID != ownerID {
		return nil, fmt.Errorf("survey %d is not owned by user %d: %w", surveyID, ownerID, ErrAccessDenied)
	}
	return survey, nil
}
