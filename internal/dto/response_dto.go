package dto

type ErrorResponse struct {
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
}

type SubmitAnswerResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

type CreatedResponse struct {
	ID uint `json:"id"`
}

type HealthResponse struct {
	Status string `json:"status"`
}
