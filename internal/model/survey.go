package model

import (
	"time"

	"gorm.io/gorm"
)

// Survey is immutable after creation except for Active.
type Survey struct {
	ID           uint             `gorm:"primarykey" json:"id"`
	UserID       uint             `json:"user_id" gorm:"not null;index"`
	Title        string           `json:"title" gorm:"size:200;not null"`
	MainQuestion string           `json:"main_question" gorm:"type:text;not null"`
	Description  string           `json:"description,omitempty" gorm:"type:text"`
	Active       bool             `json:"active" gorm:"not null"`
	Questions    []Question       `json:"questions,omitempty" gorm:"foreignKey:SurveyID"`
	Responses    []SurveyResponse `json:"responses,omitempty" gorm:"foreignKey:SurveyID"`
	Insights     []Insight        `json:"insights,omitempty" gorm:"foreignKey:SurveyID"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
	DeletedAt    gorm.DeletedAt   `gorm:"index" json:"-"`
}
