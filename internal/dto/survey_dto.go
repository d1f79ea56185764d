package dto

import "time"

type SurveyDTO struct {
	ID           uint      `json:"id"`
	Title        string    `json:"title"`
	MainQuestion string    `json:"main_question"`
	Description  string    `json:"description,omitempty"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
}

// SurveySummaryDTO is a dashboard row.
type SurveySummaryDTO struct {
	SurveyDTO
	ResponseCount  int64 `json:"response_count"`
	CompletedCount int64 `json:"completed_count"`
	InsightCount   int64 `json:"insight_count"`
}

type QuestionDTO struct {
	ID       uint     `json:"id"`
	SurveyID uint     `json:"survey_id"`
	Text     string   `json:"text"`
	Type     string   `json:"question_type"`
	Position int      `json:"order"`
	Options  []string `json:"options,omitempty"`
}

// SurveyStepDTO is the outcome of one progression step: either a pending
// question or completion.
type SurveyStepDTO struct {
	Survey        SurveyDTO    `json:"survey"`
	ResponseID    uint         `json:"response_id"`
	Completed     bool         `json:"completed"`
	Question      *QuestionDTO `json:"question,omitempty"`
	AnsweredCount int          `json:"answered_count"`
	MaxQuestions  int          `json:"max_questions"`
}

type InsightDTO struct {
	ID            uint      `json:"id"`
	Batch         string    `json:"batch"`
	Rank          int       `json:"rank"`
	Statement     string    `json:"statement"`
	Evidence      string    `json:"evidence,omitempty"`
	Confidence    float64   `json:"confidence"`
	Category      string    `json:"category"`
	Tags          []string  `json:"tags,omitempty"`
	ResponseCount int       `json:"response_count"`
	CreatedAt     time.Time `json:"created_at"`
}

type SurveyInsightsDTO struct {
	Survey   SurveyDTO    `json:"survey"`
	Insights []InsightDTO `json:"insights"`
}
