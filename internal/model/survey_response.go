package model

import "time"

// SurveyResponse tracks one respondent's pass through a survey. There is at
// most one row per (survey, respondent); CompletedAt is set once.
type SurveyResponse struct {
	ID           uint       `gorm:"primarykey" json:"id"`
	SurveyID     uint       `json:"survey_id" gorm:"not null;uniqueIndex:idx_response_survey_respondent"`
	Survey       *Survey    `json:"survey,omitempty" gorm:"foreignKey:SurveyID"`
	RespondentID string     `json:"respondent_id" gorm:"size:64;not null;uniqueIndex:idx_response_survey_respondent"`
	StartedAt    time.Time  `json:"started_at" gorm:"not null"`
	CompletedAt  *time.Time `json:"completed_at,omitempty" gorm:"index"`
	Questions    []Question `json:"questions,omitempty" gorm:"foreignKey:SurveyResponseID"`
	Answers      []Answer   `json:"answers,omitempty" gorm:"foreignKey:SurveyResponseID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func (r *SurveyResponse) IsCompleted() bool {
	return r.CompletedAt != nil
}

// Exchange is one answered question in a response's history.
type Exchange struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}
