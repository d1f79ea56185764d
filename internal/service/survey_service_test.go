package service

import (
	"context"
	"errors"
	"testing"

	"github.com/lshigami/adaptive-survey/internal/dto"
)

func TestSurveyServiceCreateAndList(t *testing.T) {
	f := newFixture(t, 1)
	svc := NewSurveyService(f.surveys, f.questions)
	ctx := context.Background()

	if _, err := svc.Create(ctx, f.owner.ID, dto.CreateSurveyRequest{Title: " ", MainQuestion: "Why?"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	created, err := svc.Create(ctx, f.owner.ID, dto.CreateSurveyRequest{Title: "Pricing", MainQuestion: "Is the price right?", Description: "Q3"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.ID == 0 || !created.Active || created.Title != "Pricing" {
		t.Fatalf("unexpected survey %+v", created)
	}

	f.completeResponse(t, "r1")
	if _, err := f.progression.Advance(ctx, f.survey.ID, "r2"); err != nil {
		t.Fatalf("Advance: %v", err)
	}

	list, err := svc.ListOwned(ctx, f.owner.ID)
	if err != nil {
		t.Fatalf("ListOwned: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 surveys, got %d", len(list))
	}
	var onboarding *dto.SurveySummaryDTO
	for i := range list {
		if list[i].ID == f.survey.ID {
			onboarding = &list[i]
		}
	}
	if onboarding == nil {
		t.Fatal("fixture survey missing from listing")
	}
	if onboarding.ResponseCount != 2 || onboarding.CompletedCount != 1 || onboarding.Title != "Onboarding" {
		t.Fatalf("unexpected counts %+v", onboarding)
	}

	others, err := svc.ListOwned(ctx, f.owner.ID+1)
	if err != nil || len(others) != 0 {
		t.Fatalf("expected no surveys for another user, got %d err=%v", len(others), err)
	}
}

func TestSurveyServiceQuestionsAndActive(t *testing.T) {
	f := newFixture(t, 2)
	svc := NewSurveyService(f.surveys, f.questions)
	ctx := context.Background()

	f.completeResponse(t, "r1")
	questions, err := svc.ListQuestions(ctx, f.survey.ID)
	if err != nil {
		t.Fatalf("ListQuestions: %v", err)
	}
	if len(questions) != 2 || questions[0].Position != 1 || questions[1].Position != 2 {
		t.Fatalf("unexpected questions %+v", questions)
	}
	if _, err := svc.ListQuestions(ctx, 999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := svc.SetActive(ctx, f.owner.ID+1, f.survey.ID, false); !errors.Is(err, ErrAccessDenied) {
		t.Fatalf("expected ErrAccessDenied, got %v", err)
	}
	if err := svc.SetActive(ctx, f.owner.ID, f.survey.ID, false); err != nil {
		t.Fatalf("SetActive: %v", err)
	}
	got, err := svc.Get(ctx, f.survey.ID)
	if err != nil || got.Active {
		t.Fatalf("expected inactive survey, got %+v err=%v", got, err)
	}
	if _, err := svc.AuthorizeOwner(ctx, f.owner.ID, 999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
