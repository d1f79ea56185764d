package service

import (
	"context"
	"strings"
	"testing"

	"github.com/lshigami/adaptive-survey/internal/model"
	"github.com/lshigami/adaptive-survey/internal/oracle/oracletest"
)

func TestNextQuestionFirstAndFollowUp(t *testing.T) {
	stub := oracletest.Script(`"Question: What brought you here?"`, "What would you change?\nExtra commentary")
	seq := NewQuestionSequencer(stub, testConfig(5))
	survey := model.Survey{ID: 7, MainQuestion: "How do you use our app?", Description: "Mobile users"}
	ctx := context.Background()

	first, ok := seq.NextQuestion(ctx, survey, nil)
	if !ok {
		t.Fatal("expected a first question")
	}
	if first.Text != "What brought you here?" || first.Position != 1 || first.SurveyID != 7 || first.Type != model.QuestionTypeOpenEnded {
		t.Fatalf("unexpected first question %+v", first)
	}

	history := []model.Exchange{{Question: first.Text, Answer: "A friend told me"}}
	next, ok := seq.NextQuestion(ctx, survey, history)
	if !ok {
		t.Fatal("expected a follow-up question")
	}
	if next.Text != "What would you change?" || next.Position != 2 {
		t.Fatalf("unexpected follow-up %+v", next)
	}

	calls := stub.Calls()
	if calls[0].Limits.MaxTokens != 100 || calls[0].Limits.Temperature != 0.7 {
		t.Fatalf("unexpected first-question limits %+v", calls[0].Limits)
	}
	if calls[1].Limits.MaxTokens != 101 {
		t.Fatalf("unexpected follow-up limits %+v", calls[1].Limits)
	}
	if !strings.Contains(calls[0].Prompt.User, "How do you use our app?") || !strings.Contains(calls[0].Prompt.User, "Mobile users") {
		t.Fatalf("first prompt missing survey context: %q", calls[0].Prompt.User)
	}
	if !strings.Contains(calls[1].Prompt.User, `Previous Q&A: [{"question":"What brought you here?","answer":"A friend told me"}]`) {
		t.Fatalf("follow-up prompt missing history: %q", calls[1].Prompt.User)
	}
}

func TestNextQuestionExhaustion(t *testing.T) {
	tests := []struct {
		name string
		stub *oracletest.Stub
	}{
		{"oracle error", oracletest.Failing("boom")},
		{"empty output", oracletest.Fixed("   ")},
		{"sentinel", oracletest.Fixed("SURVEY_COMPLETE")},
		{"sentinel with punctuation", oracletest.Fixed("survey_complete.")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seq := NewQuestionSequencer(tt.stub, testConfig(5))
			q, ok := seq.NextQuestion(context.Background(), model.Survey{ID: 1, MainQuestion: "x"}, nil)
			if ok || q != nil {
				t.Fatalf("expected no question, got %+v", q)
			}
		})
	}
}

func TestCleanQuestionText(t *testing.T) {
	tests := []struct{ in, want string }{
		{"  What do you think?  ", "What do you think?"},
		{`"Why?"`, "Why?"},
		{"Next question: How often?", "How often?"},
		{"```\nWhat next?\n```", "What next?"},
		{"“Curly quotes?”", "Curly quotes?"},
		{"First line?\nSecond line", "First line?"},
	}
	for _, tt := range tests {
		if got := cleanQuestionText(tt.in); got != tt.want {
			t.Errorf("cleanQuestionText(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
