package model

import (
	"strings"
	"time"

	"gorm.io/datatypes"
)

const (
	InsightCategoryTrend          = "trend"
	InsightCategoryPattern        = "pattern"
	InsightCategoryRecommendation = "recommendation"
	InsightCategoryConcern        = "concern"
	InsightCategoryOpportunity    = "opportunity"
)

var insightCategories = map[string]bool{
	InsightCategoryTrend:          true,
	InsightCategoryPattern:        true,
	InsightCategoryRecommendation: true,
	InsightCategoryConcern:        true,
	InsightCategoryOpportunity:    true,
}

// Insight rows are append-only. All rows written by one synthesis round share
// a Batch id; Rank orders them within the round.
type Insight struct {
	ID            uint                        `gorm:"primarykey" json:"id"`
	SurveyID      uint                        `json:"survey_id" gorm:"not null;index"`
	Batch         string                      `json:"batch" gorm:"size:36;not null;index"`
	Rank          int                         `json:"rank" gorm:"not null"`
	Statement     string                      `json:"statement" gorm:"type:text;not null"`
	Evidence      string                      `json:"evidence,omitempty" gorm:"type:text"`
	Confidence    float64                     `json:"confidence" gorm:"not null"`
	Category      string                      `json:"category" gorm:"size:32;not null"`
	Tags          datatypes.JSONSlice[string] `json:"tags,omitempty"`
	ResponseCount int                         `json:"response_count" gorm:"not null"`
	CreatedAt     time.Time                   `json:"created_at"`
}

// NormalizeInsightCategory maps free-form model output onto the known set,
// defaulting to "pattern".
func NormalizeInsightCategory(category string) string {
	c := strings.ToLower(strings.TrimSpace(category))
	if insightCategories[c] {
		return c
	}
	return InsightCategoryPattern
}
