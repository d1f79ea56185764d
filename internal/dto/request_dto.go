package dto

// SubmitAnswerRequest is the JSON body of POST /api/submit_answer. An empty
// answer is valid and stored as-is.
type SubmitAnswerRequest struct {
	QuestionID uint   `json:"question_id" binding:"required"`
	ResponseID uint   `json:"response_id" binding:"required"`
	Answer     string `json:"answer"`
}

// CreateSurveyRequest is accepted both as form fields (/create) and JSON (/api/surveys).
type CreateSurveyRequest struct {
	Title        string `form:"title" json:"title" binding:"required"`
	MainQuestion string `form:"main_question" json:"main_question" binding:"required"`
	Description  string `form:"description" json:"description"`
}

type LoginRequest struct {
	Email    string `form:"email" binding:"required"`
	Password string `form:"password" binding:"required"`
}

type RegisterRequest struct {
	Username string `form:"username" binding:"required"`
	Email    string `form:"email" binding:"required"`
	Password string `form:"password" binding:"required"`
}

type SetActiveRequest struct {
	Active bool `form:"active" json:"active"`
}
