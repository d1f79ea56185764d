package model

import (
	"time"

	"gorm.io/datatypes"
)

type Answer struct {
	ID               uint           `gorm:"primarykey" json:"id"`
	QuestionID       uint           `json:"question_id" gorm:"not null;uniqueIndex:idx_answer_question_response"`
	Question         *Question      `json:"question,omitempty" gorm:"foreignKey:QuestionID"`
	SurveyResponseID uint           `json:"survey_response_id" gorm:"not null;index;uniqueIndex:idx_answer_question_response"`
	Text             string         `json:"text" gorm:"type:text;not null"`
	ProcessedData    datatypes.JSON `json:"processed_data,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

// Annotation decodes ProcessedData. ok is false while no annotation is attached.
func (a *Answer) Annotation() (ann Annotation, ok bool, err error) {
	if len(a.ProcessedData) == 0 || string(a.ProcessedData) == "null" {
		return Annotation{}, false, nil
	}
	if err := ann.UnmarshalJSON(a.ProcessedData); err != nil {
		return Annotation{}, false, err
	}
	return ann, true, nil
}
