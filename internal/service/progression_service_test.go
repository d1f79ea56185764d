package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/lshigami/adaptive-survey/internal/model"
	"github.com/lshigami/adaptive-survey/internal/oracle/oracletest"
)

func TestAdvanceReturnsPendingQuestionOnRefresh(t *testing.T) {
	f := newFixture(t, 5)
	ctx := context.Background()

	first, err := f.progression.Advance(ctx, f.survey.ID, "r1")
	if err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if first.Completed || first.Question == nil {
		t.Fatalf("expected a pending question, got %+v", first)
	}
	if first.Question.Position != 1 || first.Question.Text != "Question 1?" {
		t.Fatalf("unexpected first question %+v", first.Question)
	}

	again, err := f.progression.Advance(ctx, f.survey.ID, "r1")
	if err != nil {
		t.Fatalf("second Advance: %v", err)
	}
	if again.ResponseID != first.ResponseID {
		t.Fatalf("expected the same response row, got %d and %d", first.ResponseID, again.ResponseID)
	}
	if again.Question == nil || again.Question.ID != first.Question.ID {
		t.Fatalf("expected pending question %d again, got %+v", first.Question.ID, again.Question)
	}
	if got := f.sequencer.CallCount(); got != 1 {
		t.Fatalf("expected a single oracle call, got %d", got)
	}

	var rows int64
	f.db.Model(&model.SurveyResponse{}).Where("survey_id = ?", f.survey.ID).Count(&rows)
	if rows != 1 {
		t.Fatalf("expected 1 response row, got %d", rows)
	}
}

func TestAdvanceRunsToQuestionLimit(t *testing.T) {
	f := newFixture(t, 3)
	ctx := context.Background()
	answers := []string{"It was quick", "The docs helped", "More examples"}

	var responseID uint
	for i, text := range answers {
		step, err := f.progression.Advance(ctx, f.survey.ID, "r1")
		if err != nil {
			t.Fatalf("Advance %d: %v", i+1, err)
		}
		if step.Completed || step.Question == nil {
			t.Fatalf("step %d: expected a question, got %+v", i+1, step)
		}
		if step.Question.Position != i+1 || step.AnsweredCount != i {
			t.Fatalf("step %d: position=%d answered=%d", i+1, step.Question.Position, step.AnsweredCount)
		}
		responseID = step.ResponseID
		if err := f.progression.SubmitAnswer(ctx, "r1", submitReq(step.ResponseID, step.Question.ID, text)); err != nil {
			t.Fatalf("SubmitAnswer %d: %v", i+1, err)
		}
	}

	done, err := f.progression.Advance(ctx, f.survey.ID, "r1")
	if err != nil {
		t.Fatalf("final Advance: %v", err)
	}
	if !done.Completed || done.Question != nil || done.AnsweredCount != 3 {
		t.Fatalf("expected completion after 3 answers, got %+v", done)
	}

	calls := f.sequencer.Calls()
	if len(calls) != 3 {
		t.Fatalf("expected 3 sequencer calls, got %d", len(calls))
	}
	if calls[0].Limits.MaxTokens != 100 || calls[1].Limits.MaxTokens != 101 {
		t.Fatalf("expected first then follow-up limits, got %+v and %+v", calls[0].Limits, calls[1].Limits)
	}
	if strings.Contains(calls[0].Prompt.User, "Previous Q&A") {
		t.Fatalf("first question prompt should not carry history: %q", calls[0].Prompt.User)
	}
	if !strings.Contains(calls[2].Prompt.User, "It was quick") || !strings.Contains(calls[2].Prompt.User, "The docs helped") {
		t.Fatalf("follow-up prompt is missing history: %q", calls[2].Prompt.User)
	}

	resp, err := f.responses.FindByID(ctx, responseID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if !resp.IsCompleted() {
		t.Fatal("expected completed_at to be set")
	}
	completedAt := *resp.CompletedAt

	again, err := f.progression.Advance(ctx, f.survey.ID, "r1")
	if err != nil || !again.Completed {
		t.Fatalf("expected completion again, got %+v err=%v", again, err)
	}
	if f.sequencer.CallCount() != 3 {
		t.Fatalf("completed response must not call the oracle, got %d calls", f.sequencer.CallCount())
	}
	resp, _ = f.responses.FindByID(ctx, responseID)
	if !resp.CompletedAt.Equal(completedAt) {
		t.Fatalf("completed_at changed from %v to %v", completedAt, *resp.CompletedAt)
	}
}

func TestAdvanceCompletesWhenFirstQuestionFails(t *testing.T) {
	f := newFixture(t, 5, withSequencer(oracletest.Failing("quota exceeded")))
	ctx := context.Background()

	step, err := f.progression.Advance(ctx, f.survey.ID, "r1")
	if err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if !step.Completed || step.AnsweredCount != 0 {
		t.Fatalf("expected immediate completion, got %+v", step)
	}
	var questions int64
	f.db.Model(&model.Question{}).Count(&questions)
	if questions != 0 {
		t.Fatalf("expected no questions, got %d", questions)
	}
}

func TestAdvanceCompletesOnSentinel(t *testing.T) {
	f := newFixture(t, 5, withSequencer(oracletest.Script("What went well?", "SURVEY_COMPLETE")))
	ctx := context.Background()

	step, err := f.progression.Advance(ctx, f.survey.ID, "r1")
	if err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if err := f.progression.SubmitAnswer(ctx, "r1", submitReq(step.ResponseID, step.Question.ID, "Everything")); err != nil {
		t.Fatalf("SubmitAnswer: %v", err)
	}
	step, err = f.progression.Advance(ctx, f.survey.ID, "r1")
	if err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if !step.Completed || step.AnsweredCount != 1 {
		t.Fatalf("expected completion after sentinel, got %+v", step)
	}
}

func TestAdvanceRejectsUnknownAndInactiveSurveys(t *testing.T) {
	f := newFixture(t, 5)
	ctx := context.Background()

	if _, err := f.progression.Advance(ctx, 9999, "r1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown survey, got %v", err)
	}
	if err := f.surveys.UpdateActive(ctx, f.survey.ID, false); err != nil {
		t.Fatalf("UpdateActive: %v", err)
	}
	if _, err := f.progression.Advance(ctx, f.survey.ID, "r1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for inactive survey, got %v", err)
	}
	if _, err := f.progression.Advance(ctx, f.survey.ID, " "); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for blank respondent, got %v", err)
	}
}

func TestAdvanceConcurrentRequestsShareOneQuestion(t *testing.T) {
	f := newFixture(t, 5)
	ctx := context.Background()

	const workers = 8
	var wg sync.WaitGroup
	ids := make([]uint, workers)
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			step, err := f.progression.Advance(ctx, f.survey.ID, "r1")
			if err != nil {
				errs[i] = err
				return
			}
			ids[i] = step.Question.ID
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("worker %d: %v", i, err)
		}
		if ids[i] != ids[0] {
			t.Fatalf("worker %d saw question %d, worker 0 saw %d", i, ids[i], ids[0])
		}
	}
	var responses, questions int64
	f.db.Model(&model.SurveyResponse{}).Count(&responses)
	f.db.Model(&model.Question{}).Count(&questions)
	if responses != 1 || questions != 1 {
		t.Fatalf("expected 1 response and 1 question, got %d and %d", responses, questions)
	}
	if f.sequencer.CallCount() != 1 {
		t.Fatalf("expected 1 oracle call, got %d", f.sequencer.CallCount())
	}
}

func TestAdvanceSeparatesRespondents(t *testing.T) {
	f := newFixture(t, 5)
	ctx := context.Background()

	a, err := f.progression.Advance(ctx, f.survey.ID, "r1")
	if err != nil {
		t.Fatalf("Advance r1: %v", err)
	}
	b, err := f.progression.Advance(ctx, f.survey.ID, "r2")
	if err != nil {
		t.Fatalf("Advance r2: %v", err)
	}
	if a.ResponseID == b.ResponseID || a.Question.ID == b.Question.ID {
		t.Fatalf("respondents must not share rows: %+v %+v", a, b)
	}
	if b.Question.Position != 1 {
		t.Fatalf("expected second respondent to start at position 1, got %d", b.Question.Position)
	}
}

func TestSubmitAnswerStoresEmptyTextAndAnnotation(t *testing.T) {
	f := newFixture(t, 5)
	ctx := context.Background()

	step, err := f.progression.Advance(ctx, f.survey.ID, "r1")
	if err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if err := f.progression.SubmitAnswer(ctx, "r1", submitReq(step.ResponseID, step.Question.ID, "")); err != nil {
		t.Fatalf("SubmitAnswer: %v", err)
	}

	answers, err := f.answers.ListByResponse(ctx, step.ResponseID)
	if err != nil || len(answers) != 1 {
		t.Fatalf("expected one answer, got %d err=%v", len(answers), err)
	}
	if answers[0].Text != "" {
		t.Fatalf("expected empty text, got %q", answers[0].Text)
	}
	ann, ok, err := answers[0].Annotation()
	if err != nil || !ok {
		t.Fatalf("expected an attached annotation, ok=%v err=%v", ok, err)
	}
	if ann.Kind != model.AnnotationStructured {
		t.Fatalf("expected structured annotation, got %s", ann.Kind)
	}
	calls := f.interpreter.Calls()
	if len(calls) != 1 || calls[0].Limits.MaxTokens != 300 {
		t.Fatalf("unexpected interpreter calls %+v", calls)
	}

	next, err := f.progression.Advance(ctx, f.survey.ID, "r1")
	if err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if next.AnsweredCount != 1 || next.Question.Position != 2 {
		t.Fatalf("expected second question after empty answer, got %+v", next)
	}
}

func TestSubmitAnswerKeepsAnswerWhenInterpreterFails(t *testing.T) {
	f := newFixture(t, 5, withInterpreter(oracletest.Failing("timeout")))
	ctx := context.Background()

	step, _ := f.progression.Advance(ctx, f.survey.ID, "r1")
	if err := f.progression.SubmitAnswer(ctx, "r1", submitReq(step.ResponseID, step.Question.ID, "fine")); err != nil {
		t.Fatalf("SubmitAnswer must not fail on oracle errors: %v", err)
	}
	answers, _ := f.answers.ListByResponse(ctx, step.ResponseID)
	if len(answers) != 1 {
		t.Fatalf("expected stored answer, got %d", len(answers))
	}
	var payload map[string]any
	if err := json.Unmarshal(answers[0].ProcessedData, &payload); err != nil {
		t.Fatalf("decode processed data: %v", err)
	}
	if _, ok := payload["error"]; !ok {
		t.Fatalf("expected error annotation, got %s", answers[0].ProcessedData)
	}
}

func TestSubmitAnswerRejectsCompletedResponse(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()

	step, _ := f.progression.Advance(ctx, f.survey.ID, "r1")
	if err := f.progression.SubmitAnswer(ctx, "r1", submitReq(step.ResponseID, step.Question.ID, "a")); err != nil {
		t.Fatalf("SubmitAnswer: %v", err)
	}
	done, _ := f.progression.Advance(ctx, f.survey.ID, "r1")
	if !done.Completed {
		t.Fatalf("expected completion with MAX=1, got %+v", done)
	}

	err := f.progression.SubmitAnswer(ctx, "r1", submitReq(step.ResponseID, step.Question.ID, "late"))
	if !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
	count, _ := f.answers.CountByResponse(ctx, step.ResponseID)
	if count != 1 {
		t.Fatalf("expected answer count to stay 1, got %d", count)
	}
}

func TestSubmitAnswerRejectsDuplicates(t *testing.T) {
	f := newFixture(t, 5)
	ctx := context.Background()

	step, _ := f.progression.Advance(ctx, f.survey.ID, "r1")
	if err := f.progression.SubmitAnswer(ctx, "r1", submitReq(step.ResponseID, step.Question.ID, "first")); err != nil {
		t.Fatalf("SubmitAnswer: %v", err)
	}
	err := f.progression.SubmitAnswer(ctx, "r1", submitReq(step.ResponseID, step.Question.ID, "second"))
	if !errors.Is(err, ErrDuplicateAnswer) {
		t.Fatalf("expected ErrDuplicateAnswer, got %v", err)
	}
}

func TestSubmitAnswerValidatesReferences(t *testing.T) {
	f := newFixture(t, 5)
	ctx := context.Background()

	a, _ := f.progression.Advance(ctx, f.survey.ID, "r1")
	b, _ := f.progression.Advance(ctx, f.survey.ID, "r2")

	if err := f.progression.SubmitAnswer(ctx, "r1", submitReq(9999, a.Question.ID, "x")); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown response, got %v", err)
	}
	if err := f.progression.SubmitAnswer(ctx, "r1", submitReq(a.ResponseID, 9999, "x")); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown question, got %v", err)
	}
	if err := f.progression.SubmitAnswer(ctx, "r1", submitReq(a.ResponseID, b.Question.ID, "x")); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState for foreign question, got %v", err)
	}
}

func TestSubmitAnswerRejectsOtherRespondents(t *testing.T) {
	f := newFixture(t, 5)
	ctx := context.Background()

	step, err := f.progression.Advance(ctx, f.survey.ID, "r1")
	if err != nil {
		t.Fatalf("Advance: %v", err)
	}
	req := submitReq(step.ResponseID, step.Question.ID, "injected")
	for _, respondent := range []string{"r2", "", "  "} {
		if err := f.progression.SubmitAnswer(ctx, respondent, req); !errors.Is(err, ErrNotFound) {
			t.Fatalf("respondent %q: expected ErrNotFound, got %v", respondent, err)
		}
	}
	if n, _ := f.answers.CountByResponse(ctx, step.ResponseID); n != 0 {
		t.Fatalf("expected no stored answers, got %d", n)
	}
	if f.interpreter.CallCount() != 0 {
		t.Fatalf("interpreter must not run for rejected answers")
	}

	if err := f.progression.SubmitAnswer(ctx, " r1 ", req); err != nil {
		t.Fatalf("owner SubmitAnswer: %v", err)
	}
}

func TestCompletionTriggersInsightSynthesis(t *testing.T) {
	f := newFixture(t, 2, withInsightsOnCompletion())
	ctx := context.Background()

	f.completeResponse(t, "r1", "good", "fast")

	if f.synthesis.CallCount() != 1 {
		t.Fatalf("expected one synthesis call, got %d", f.synthesis.CallCount())
	}
	count, err := f.insights.CountBySurvey(ctx, f.survey.ID)
	if err != nil || count != 1 {
		t.Fatalf("expected 1 insight, got %d err=%v", count, err)
	}

	// A completed response re-visited does not trigger another round.
	if _, err := f.progression.Advance(ctx, f.survey.ID, "r1"); err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if f.synthesis.CallCount() != 1 {
		t.Fatalf("expected no extra synthesis, got %d calls", f.synthesis.CallCount())
	}
}

func TestCompletionSynthesisRunsOutsideProgressionLock(t *testing.T) {
	var (
		f       *fixture
		lockErr error
	)
	synthesis := &oracletest.Stub{Respond: func(oracletest.Call, int) (string, error) {
		ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
		defer cancel()
		release, err := f.locker.Lock(ctx, progressionKey(f.survey.ID, "r1"))
		if err != nil {
			lockErr = err
			return "[]", nil
		}
		release()
		return `[{"statement":"Quick answers","confidence":60}]`, nil
	}}
	f = newFixture(t, 1, withSynthesis(synthesis), withInsightsOnCompletion())

	f.completeResponse(t, "r1", "fine")

	if synthesis.CallCount() != 1 {
		t.Fatalf("expected one synthesis call, got %d", synthesis.CallCount())
	}
	if lockErr != nil {
		t.Fatalf("progression lock still held during synthesis: %v", lockErr)
	}
}

func TestBuildHistoryStopsAtFirstUnanswered(t *testing.T) {
	questions := []model.Question{
		{ID: 1, Text: "Q1", Position: 1},
		{ID: 2, Text: "Q2", Position: 2},
	}
	answers := []model.Answer{{QuestionID: 1, Text: "A1"}}

	history, pending := buildHistory(questions, answers)
	if len(history) != 1 || history[0] != (model.Exchange{Question: "Q1", Answer: "A1"}) {
		t.Fatalf("unexpected history %+v", history)
	}
	if pending == nil || pending.ID != 2 {
		t.Fatalf("expected question 2 pending, got %+v", pending)
	}
}
