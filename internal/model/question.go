package model

import (
	"time"

	"gorm.io/datatypes"
)

const (
	QuestionTypeOpenEnded      = "open_ended"
	QuestionTypeMultipleChoice = "multiple_choice"
)

// Question is generated by the sequencer for one response and never mutated.
// Position is 1-based and unique per response.
type Question struct {
	ID               uint                        `gorm:"primarykey" json:"id"`
	SurveyID         uint                        `json:"survey_id" gorm:"not null;index"`
	SurveyResponseID *uint                       `json:"survey_response_id,omitempty" gorm:"uniqueIndex:idx_question_response_position"`
	Text             string                      `json:"text" gorm:"type:text;not null"`
	Type             string                      `json:"type" gorm:"size:32;not null"` // "open_ended", "multiple_choice"
	Position         int                         `json:"position" gorm:"not null;uniqueIndex:idx_question_response_position"`
	Options          datatypes.JSONSlice[string] `json:"options,omitempty"`
	CreatedAt        time.Time                   `json:"created_at"`
	UpdatedAt        time.Time                   `json:"updated_at"`
}
