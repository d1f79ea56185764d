package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jinzhu/copier"
	"github.com/lshigami/adaptive-survey/config"
	"github.com/lshigami/adaptive-survey/internal/dto"
	"github.com/lshigami/adaptive-survey/internal/lock"
	"github.com/lshigami/adaptive-survey/internal/model"
	"github.com/lshigami/adaptive-survey/internal/repository"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// ProgressionService moves a respondent through a survey one question at a
// time: STARTED -> IN_PROGRESS -> COMPLETED.
type ProgressionService interface {
	// Advance returns the respondent's pending question, issues the next one,
	// or reports completion. Repeated calls without an answer in between
	// return the same pending question.
	Advance(ctx context.Context, surveyID uint, respondentID string) (*dto.SurveyStepDTO, error)
	// SubmitAnswer records an answer on behalf of respondentID. A response
	// owned by another respondent is reported as not found.
	SubmitAnswer(ctx context.Context, respondentID string, req dto.SubmitAnswerRequest) error
}

type progressionService struct {
	db           *gorm.DB
	surveyRepo   repository.SurveyRepository
	responseRepo repository.SurveyResponseRepository
	questionRepo repository.QuestionRepository
	answerRepo   repository.AnswerRepository
	sequencer    QuestionSequencer
	interpreter  ResponseInterpreter
	synthesizer  InsightSynthesizer
	locker       lock.Locker

	maxQuestions         int
	insightsOnCompletion bool
	now                  func() time.Time
}

func NewProgressionService(
	db *gorm.DB,
	surveyRepo repository.SurveyRepository,
	responseRepo repository.SurveyResponseRepository,
	questionRepo repository.QuestionRepository,
	answerRepo repository.AnswerRepository,
	sequencer QuestionSequencer,
	interpreter ResponseInterpreter,
	synthesizer InsightSynthesizer,
	locker lock.Locker,
	cfg *config.Config,
) ProgressionService {
	return &progressionService{
		db:                   db,
		surveyRepo:           surveyRepo,
		responseRepo:         responseRepo,
		questionRepo:         questionRepo,
		answerRepo:           answerRepo,
		sequencer:            sequencer,
		interpreter:          interpreter,
		synthesizer:          synthesizer,
		locker:               locker,
		maxQuestions:         cfg.Survey.MaxQuestions,
		insightsOnCompletion: cfg.Survey.InsightsOnCompletion,
		now:                  time.Now,
	}
}

func progressionKey(surveyID uint, respondentID string) string {
	return fmt.Sprintf("progress:%d:%s", surveyID, respondentID)
}

func (s *progressionService) Advance(ctx context.Context, surveyID uint, respondentID string) (*dto.SurveyStepDTO, error) {
	respondentID = strings.TrimSpace(respondentID)
	if respondentID == "" {
		return nil, fmt.Errorf("respondent id is required: %w", ErrInvalidInput)
	}
	survey, err := s.surveyRepo.FindByID(ctx, surveyID)
	if err != nil {
		return nil, notFound(err, "survey %d", surveyID)
	}
	if !survey.Active {
		return nil, fmt.Errorf("survey %d is inactive: %w", surveyID, ErrNotFound)
	}

	step, completedNow, err := s.step(ctx, survey, respondentID)
	if err != nil {
		return nil, err
	}
	// Synthesis runs after the progression lock is released.
	if completedNow && s.insightsOnCompletion && s.synthesizer != nil {
		if _, err := s.synthesizer.Synthesize(ctx, surveyID); err != nil {
			log.Error().Err(err).Uint("surveyID", surveyID).Msg("Advance: insight regeneration failed")
		}
	}
	return step, nil
}

// step performs one Advance under the respondent's lock. completedNow reports
// whether this call moved the response to COMPLETED.
func (s *progressionService) step(ctx context.Context, survey *model.Survey, respondentID string) (step *dto.SurveyStepDTO, completedNow bool, err error) {
	surveyID := survey.ID
	release, err := s.locker.Lock(ctx, progressionKey(surveyID, respondentID))
	if err != nil {
		return nil, false, fmt.Errorf("failed to lock progression for survey %d: %w", surveyID, err)
	}
	defer release()

	response, err := s.findOrStart(ctx, surveyID, respondentID)
	if err != nil {
		return nil, false, err
	}

	step = &dto.SurveyStepDTO{ResponseID: response.ID, MaxQuestions: s.maxQuestions}
	if err := copier.Copy(&step.Survey, survey); err != nil {
		return nil, false, fmt.Errorf("failed to map survey: %w", err)
	}

	questions, err := s.questionRepo.ListByResponse(ctx, response.ID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to load questions for response %d: %w", response.ID, err)
	}
	answers, err := s.answerRepo.ListByResponse(ctx, response.ID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to load answers for response %d: %w", response.ID, err)
	}
	step.AnsweredCount = len(answers)

	if response.IsCompleted() {
		step.Completed = true
		return step, false, nil
	}

	history, pending := buildHistory(questions, answers)
	if pending != nil {
		log.Debug().Uint("responseID", response.ID).Int("position", pending.Position).Msg("Advance: returning pending question")
		step.Question = toQuestionDTO(pending)
		return step, false, nil
	}

	if step.AnsweredCount >= s.maxQuestions {
		return s.complete(ctx, response, step, "question limit reached")
	}

	question, ok := s.sequencer.NextQuestion(ctx, *survey, history)
	if !ok {
		return s.complete(ctx, response, step, "sequencer exhausted")
	}
	question.SurveyID = survey.ID
	question.SurveyResponseID = &response.ID
	question.Position = len(history) + 1

	var saved *model.Question
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.questionRepo.WithTx(tx)
		created, err := repo.CreateIfAbsent(ctx, question)
		if err != nil {
			return err
		}
		if created {
			saved = question
			return nil
		}
		saved, err = repo.FindByResponseAndPosition(ctx, response.ID, question.Position)
		return err
	})
	if err != nil {
		return nil, false, fmt.Errorf("failed to save question %d for response %d: %w", question.Position, response.ID, err)
	}

	log.Info().Uint("surveyID", surveyID).Str("respondentID", respondentID).Int("position", saved.Position).Msg("Advance: issued question")
	step.Question = toQuestionDTO(saved)
	return step, false, nil
}

// findOrStart returns the response for the pair, creating it on first visit.
// A concurrent insert that loses the unique index re-reads the winner.
func (s *progressionService) findOrStart(ctx context.Context, surveyID uint, respondentID string) (*model.SurveyResponse, error) {
	response, err := s.responseRepo.FindBySurveyAndRespondent(ctx, surveyID, respondentID)
	if err == nil {
		return response, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to look up response for survey %d: %w", surveyID, err)
	}

	response = &model.SurveyResponse{SurveyID: surveyID, RespondentID: respondentID, StartedAt: s.now()}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.responseRepo.WithTx(tx)
		created, err := repo.CreateIfAbsent(ctx, response)
		if err != nil || created {
			return err
		}
		response, err = repo.FindBySurveyAndRespondent(ctx, surveyID, respondentID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start response for survey %d: %w", surveyID, err)
	}
	log.Info().Uint("surveyID", surveyID).Str("respondentID", respondentID).Uint("responseID", response.ID).Msg("Advance: response started")
	return response, nil
}

// complete marks the response COMPLETED and reports whether this call made
// the transition.
func (s *progressionService) complete(ctx context.Context, response *model.SurveyResponse, step *dto.SurveyStepDTO, reason string) (*dto.SurveyStepDTO, bool, error) {
	var transitioned bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		transitioned, err = s.responseRepo.WithTx(tx).MarkCompleted(ctx, response.ID, s.now())
		return err
	})
	if err != nil {
		return nil, false, fmt.Errorf("failed to complete response %d: %w", response.ID, err)
	}
	step.Completed = true
	if transitioned {
		log.Info().Uint("surveyID", response.SurveyID).Uint("responseID", response.ID).Int("answered", step.AnsweredCount).Str("reason", reason).Msg("Advance: response completed")
	}
	return step, transitioned, nil
}

func (s *progressionService) SubmitAnswer(ctx context.Context, respondentID string, req dto.SubmitAnswerRequest) error {
	answer, err := s.storeAnswer(ctx, strings.TrimSpace(respondentID), req)
	if err != nil {
		return err
	}

	ann := s.interpreter.Interpret(ctx, answer.Text)
	data, err := ann.JSON()
	if err != nil {
		log.Error().Err(err).Uint("answerID", answer.ID).Msg("SubmitAnswer: failed to encode annotation")
		return nil
	}
	attached, err := s.answerRepo.AttachAnnotation(ctx, answer.ID, data)
	if err != nil {
		log.Error().Err(err).Uint("answerID", answer.ID).Msg("SubmitAnswer: failed to attach annotation")
		return nil
	}
	log.Debug().Uint("answerID", answer.ID).Str("kind", string(ann.Kind)).Bool("attached", attached).Msg("SubmitAnswer: annotation processed")
	return nil
}

// storeAnswer validates and commits the answer under the respondent's lock.
func (s *progressionService) storeAnswer(ctx context.Context, respondentID string, req dto.SubmitAnswerRequest) (*model.Answer, error) {
	response, err := s.responseRepo.FindByID(ctx, req.ResponseID)
	if err != nil {
		return nil, notFound(err, "response %d", req.ResponseID)
	}
	if respondentID == "" || response.RespondentID != respondentID {
		return nil, fmt.Errorf("response %d: %w", req.ResponseID, ErrNotFound)
	}

	release, err := s.locker.Lock(ctx, progressionKey(response.SurveyID, response.RespondentID))
	if err != nil {
		return nil, fmt.Errorf("failed to lock progression for response %d: %w", response.ID, err)
	}
	defer release()

	// Re-read under the lock; Advance may have completed it meanwhile.
	response, err = s.responseRepo.FindByID(ctx, req.ResponseID)
	if err != nil {
		return nil, notFound(err, "response %d", req.ResponseID)
	}
	question, err := s.questionRepo.FindByID(ctx, req.QuestionID)
	if err != nil {
		return nil, notFound(err, "question %d", req.QuestionID)
	}
	if response.IsCompleted() {
		return nil, fmt.Errorf("response %d is already completed: %w", response.ID, ErrInvalidState)
	}
	if question.SurveyID != response.SurveyID || question.SurveyResponseID == nil || *question.SurveyResponseID != response.ID {
		return nil, fmt.Errorf("question %d was not issued to response %d: %w", question.ID, response.ID, ErrInvalidState)
	}

	answer := &model.Answer{QuestionID: question.ID, SurveyResponseID: response.ID, Text: req.Answer}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		created, err := s.answerRepo.WithTx(tx).CreateIfAbsent(ctx, answer)
		if err != nil {
			return err
		}
		if !created {
			return fmt.Errorf("question %d for response %d: %w", question.ID, response.ID, ErrDuplicateAnswer)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrDuplicateAnswer) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to save answer: %w", err)
	}
	log.Info().Uint("responseID", response.ID).Uint("questionID", question.ID).Int("length", len(req.Answer)).Msg("SubmitAnswer: answer stored")
	return answer, nil
}

// buildHistory pairs answered questions in position order and returns the
// first issued question that has no answer yet.
func buildHistory(questions []model.Question, answers []model.Answer) ([]model.Exchange, *model.Question) {
	byQuestion := make(map[uint]string, len(answers))
	for _, a := range answers {
		byQuestion[a.QuestionID] = a.Text
	}
	history := make([]model.Exchange, 0, len(answers))
	for i := range questions {
		text, answered := byQuestion[questions[i].ID]
		if !answered {
			return history, &questions[i]
		}
		history = append(history, model.Exchange{Question: questions[i].Text, Answer: text})
	}
	return history, nil
}

func toQuestionDTO(q *model.Question) *dto.QuestionDTO {
	return &dto.QuestionDTO{
		ID:       q.ID,
		SurveyID: q.SurveyID,
		Text:     q.Text,
		Type:     q.Type,
		Position: q.Position,
		Options:  []string(q.Options),
	}
}
