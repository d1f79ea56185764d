package service

import (
	"context"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/lshigami/adaptive-survey/config"
	"github.com/lshigami/adaptive-survey/database"
	"github.com/lshigami/adaptive-survey/internal/dto"
	"github.com/lshigami/adaptive-survey/internal/lock"
	"github.com/lshigami/adaptive-survey/internal/model"
	"github.com/lshigami/adaptive-survey/internal/oracle"
	"github.com/lshigami/adaptive-survey/internal/oracle/oracletest"
	"github.com/lshigami/adaptive-survey/internal/repository"
	"gorm.io/gorm"
)

func tempDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open(config.Database{Driver: database.DriverSQLite, URL: filepath.Join(t.TempDir(), "service.db")})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func testConfig(maxQuestions int) *config.Config {
	cfg := &config.Config{}
	cfg.Survey.MaxQuestions = maxQuestions
	cfg.Oracle.FirstQuestion = config.CallLimits{MaxTokens: 100, Temperature: 0.7}
	cfg.Oracle.FollowUp = config.CallLimits{MaxTokens: 101, Temperature: 0.7}
	cfg.Oracle.Interpret = config.CallLimits{MaxTokens: 300, Temperature: 0.3}
	cfg.Oracle.Synthesis = config.CallLimits{MaxTokens: 1000, Temperature: 0.5}
	return cfg
}

// fixture wires the services over one temp database. Each call site gets its
// own stub so tests can script them independently.
type fixture struct {
	db          *gorm.DB
	cfg         *config.Config
	surveys     repository.SurveyRepository
	responses   repository.SurveyResponseRepository
	questions   repository.QuestionRepository
	answers     repository.AnswerRepository
	insights    repository.InsightRepository
	sequencer   *oracletest.Stub
	interpreter *oracletest.Stub
	synthesis   *oracletest.Stub
	locker      lock.Locker
	synth       InsightSynthesizer
	progression ProgressionService
	owner       *model.User
	survey      *model.Survey
}

type fixtureOption func(*fixture)

func withSequencer(s *oracletest.Stub) fixtureOption { return func(f *fixture) { f.sequencer = s } }
func withInterpreter(s *oracletest.Stub) fixtureOption { return func(f *fixture) { f.interpreter = s } }
func withSynthesis(s *oracletest.Stub) fixtureOption { return func(f *fixture) { f.synthesis = s } }
func withInsightsOnCompletion() fixtureOption {
	return func(f *fixture) { f.cfg.Survey.InsightsOnCompletion = true }
}

func newFixture(t *testing.T, maxQuestions int, opts ...fixtureOption) *fixture {
	t.Helper()
	db := tempDB(t)
	f := &fixture{
		db:          db,
		cfg:         testConfig(maxQuestions),
		surveys:     repository.NewSurveyRepository(db),
		responses:   repository.NewSurveyResponseRepository(db),
		questions:   repository.NewQuestionRepository(db),
		answers:     repository.NewAnswerRepository(db),
		insights:    repository.NewInsightRepository(db),
		sequencer:   numberedQuestions(),
		interpreter: oracletest.Fixed(`{"topics":["onboarding"],"sentiment":"positive","entities":[],"quantitative_data":{}}`),
		synthesis:   oracletest.Fixed(`[{"statement":"Respondents like onboarding","confidence":80,"evidence":"all answers","category":"trend","tags":["onboarding"]}]`),
		locker:      lock.NewKeyedMutex(),
	}
	for _, opt := range opts {
		opt(f)
	}

	f.synth = NewInsightSynthesizer(db, f.surveys, f.responses, f.insights, f.synthesis, f.cfg)
	f.progression = NewProgressionService(
		db, f.surveys, f.responses, f.questions, f.answers,
		NewQuestionSequencer(f.sequencer, f.cfg),
		NewResponseInterpreter(f.interpreter, f.cfg),
		f.synth,
		f.locker,
		f.cfg,
	)

	ctx := context.Background()
	f.owner = &model.User{Username: "owner", Email: "owner@example.com", PasswordHash: "hash"}
	if err := repository.NewUserRepository(db).Create(ctx, f.owner); err != nil {
		t.Fatalf("create owner: %v", err)
	}
	f.survey = &model.Survey{UserID: f.owner.ID, Title: "Onboarding", MainQuestion: "How was your onboarding?", Active: true}
	if err := f.surveys.Create(ctx, f.survey); err != nil {
		t.Fatalf("create survey: %v", err)
	}
	return f
}

// numberedQuestions answers the n-th call with "Question n?".
func numberedQuestions() *oracletest.Stub {
	return &oracletest.Stub{Respond: func(_ oracletest.Call, n int) (string, error) {
		return "Question " + strconv.Itoa(n) + "?", nil
	}}
}

func submitReq(responseID, questionID uint, answer string) dto.SubmitAnswerRequest {
	return dto.SubmitAnswerRequest{ResponseID: responseID, QuestionID: questionID, Answer: answer}
}

// completeResponse drives one respondent through the whole survey.
func (f *fixture) completeResponse(t *testing.T, respondentID string, answers ...string) {
	t.Helper()
	ctx := context.Background()
	for i := 0; ; i++ {
		step, err := f.progression.Advance(ctx, f.survey.ID, respondentID)
		if err != nil {
			t.Fatalf("Advance %s: %v", respondentID, err)
		}
		if step.Completed {
			return
		}
		text := "answer"
		if i < len(answers) {
			text = answers[i]
		}
		if err := f.progression.SubmitAnswer(ctx, respondentID, submitReq(step.ResponseID, step.Question.ID, text)); err != nil {
			t.Fatalf("SubmitAnswer %s: %v", respondentID, err)
		}
	}
}

var _ oracle.Oracle = (*oracletest.Stub)(nil)
