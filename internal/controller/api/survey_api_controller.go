package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lshigami/adaptive-survey/internal/controller"
	"github.com/lshigami/adaptive-survey/internal/dto"
	"github.com/lshigami/adaptive-survey/internal/middleware"
	"github.com/lshigami/adaptive-survey/internal/service"
	"github.com/lshigami/adaptive-survey/internal/session"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type SurveyAPIController struct {
	sessions       *session.Manager
	surveyService  service.SurveyService
	progression    service.ProgressionService
	insightService service.InsightSynthesizer
	db             *gorm.DB // health check only
}

func NewSurveyAPIController(
	sessions *session.Manager,
	surveyService service.SurveyService,
	progression service.ProgressionService,
	insightService service.InsightSynthesizer,
	db *gorm.DB,
) *SurveyAPIController {
	return &SurveyAPIController{
		sessions:       sessions,
		surveyService:  surveyService,
		progression:    progression,
		insightService: insightService,
		db:             db,
	}
}

func (ctrl *SurveyAPIController) RegisterRoutes(router *gin.Engine) {
	router.GET("/healthz", ctrl.Health)

	apiGroup := router.Group("/api")
	{
		apiGroup.POST("/submit_answer", ctrl.SubmitAnswer)

		surveys := apiGroup.Group("/surveys", middleware.RequireLogin(ctrl.sessions))
		surveys.GET("", ctrl.ListSurveys)
		surveys.POST("", ctrl.CreateSurvey)
		surveys.PUT("/:id/active", ctrl.SetActive)
		surveys.GET("/:id/questions", ctrl.ListQuestions)
		surveys.GET("/:id/insights", ctrl.GetInsights)
	}
}

func errorJSON(c *gin.Context, err error) {
	status := controller.StatusFor(err)
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("api: request failed")
	}
	c.JSON(status, dto.ErrorResponse{Message: controller.PublicMessage(err)})
}

// SubmitAnswer godoc
// @Summary Submit an answer to the pending question
// @Description Stores the answer for a question issued to the given response, then annotates it. An empty answer is accepted. The response must belong to the caller's session respondent.
// @Tags Survey taking
// @Accept json
// @Produce json
// @Param answer body dto.SubmitAnswerRequest true "Answer"
// @Success 200 {object} dto.SubmitAnswerResponse
// @Failure 400 {object} dto.SubmitAnswerResponse "Malformed body"
// @Failure 404 {object} dto.SubmitAnswerResponse "Unknown question, or response not owned by this session"
// @Failure 409 {object} dto.SubmitAnswerResponse "Response completed or question already answered"
// @Failure 500 {object} dto.SubmitAnswerResponse "Internal server error"
// @Router /api/submit_answer [post]
func (ctrl *SurveyAPIController) SubmitAnswer(c *gin.Context) {
	var req dto.SubmitAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn().Err(err).Msg("SubmitAnswer: invalid body")
		c.JSON(http.StatusBadRequest, dto.SubmitAnswerResponse{Success: false, Error: "question_id and response_id are required"})
		return
	}

	respondentID := session.FromContext(c).RespondentID
	if err := ctrl.progression.SubmitAnswer(c.Request.Context(), respondentID, req); err != nil {
		status := controller.StatusFor(err)
		if status == http.StatusInternalServerError {
			log.Error().Err(err).Uint("responseID", req.ResponseID).Msg("SubmitAnswer: service error")
		} else {
			log.Info().Err(err).Uint("responseID", req.ResponseID).Uint("questionID", req.QuestionID).Msg("SubmitAnswer: rejected")
		}
		c.JSON(status, dto.SubmitAnswerResponse{Success: false, Error: controller.PublicMessage(err)})
		return
	}
	c.JSON(http.StatusOK, dto.SubmitAnswerResponse{Success: true})
}

// ListSurveys godoc
// @Summary List the caller's surveys
// @Tags Surveys
// @Produce json
// @Success 200 {array} dto.SurveySummaryDTO
// @Failure 401 {object} dto.ErrorResponse "Login required"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /api/surveys [get]
func (ctrl *SurveyAPIController) ListSurveys(c *gin.Context) {
	surveys, err := ctrl.surveyService.ListOwned(c.Request.Context(), c.GetUint("userID"))
	if err != nil {
		errorJSON(c, err)
		return
	}
	c.JSON(http.StatusOK, surveys)
}

// CreateSurvey godoc
// @Summary Create a survey
// @Tags Surveys
// @Accept json
// @Produce json
// @Param survey body dto.CreateSurveyRequest true "Survey"
// @Success 201 {object} dto.CreatedResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid input"
// @Failure 401 {object} dto.ErrorResponse "Login required"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /api/surveys [post]
func (ctrl *SurveyAPIController) CreateSurvey(c *gin.Context) {
	var req dto.CreateSurveyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid input", Details: []string{err.Error()}})
		return
	}
	survey, err := ctrl.surveyService.Create(c.Request.Context(), c.GetUint("userID"), req)
	if err != nil {
		errorJSON(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.CreatedResponse{ID: survey.ID})
}

// SetActive godoc
// @Summary Activate or deactivate a survey
// @Tags Surveys
// @Accept json
// @Produce json
// @Param id path int true "Survey ID"
// @Param body body dto.SetActiveRequest true "Active flag"
// @Success 204
// @Failure 400 {object} dto.ErrorResponse "Invalid input"
// @Failure 403 {object} dto.ErrorResponse "Not the owner"
// @Failure 404 {object} dto.ErrorResponse "Survey not found"
// @Router /api/surveys/{id}/active [put]
func (ctrl *SurveyAPIController) SetActive(c *gin.Context) {
	surveyID, ok := controller.ParseID(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid survey ID format"})
		return
	}
	var req dto.SetActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid input", Details: []string{err.Error()}})
		return
	}
	if err := ctrl.surveyService.SetActive(c.Request.Context(), c.GetUint("userID"), surveyID, req.Active); err != nil {
		errorJSON(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListQuestions godoc
// @Summary List questions issued for a survey
// @Description Every question generated for any respondent, ordered by position.
// @Tags Surveys
// @Produce json
// @Param id path int true "Survey ID"
// @Success 200 {array} dto.QuestionDTO
// @Failure 400 {object} dto.ErrorResponse "Invalid survey ID"
// @Failure 403 {object} dto.ErrorResponse "Not the owner"
// @Failure 404 {object} dto.ErrorResponse "Survey not found"
// @Router /api/surveys/{id}/questions [get]
func (ctrl *SurveyAPIController) ListQuestions(c *gin.Context) {
	surveyID, ok := controller.ParseID(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid survey ID format"})
		return
	}
	if _, err := ctrl.surveyService.AuthorizeOwner(c.Request.Context(), c.GetUint("userID"), surveyID); err != nil {
		errorJSON(c, err)
		return
	}
	questions, err := ctrl.surveyService.ListQuestions(c.Request.Context(), surveyID)
	if err != nil {
		errorJSON(c, err)
		return
	}
	c.JSON(http.StatusOK, questions)
}

// GetInsights godoc
// @Summary Get insights for a survey
// @Description Returns every stored insight, newest round first. With regenerate=true a new round is synthesized first.
// @Tags Surveys
// @Produce json
// @Param id path int true "Survey ID"
// @Param regenerate query bool false "Synthesize a new round first"
// @Success 200 {object} dto.SurveyInsightsDTO
// @Failure 400 {object} dto.ErrorResponse "Invalid survey ID"
// @Failure 403 {object} dto.ErrorResponse "Not the owner"
// @Failure 404 {object} dto.ErrorResponse "Survey not found"
// @Router /api/surveys/{id}/insights [get]
func (ctrl *SurveyAPIController) GetInsights(c *gin.Context) {
	surveyID, ok := controller.ParseID(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid survey ID format"})
		return
	}
	regenerate := c.Query("regenerate") == "true"
	result, err := ctrl.insightService.OwnerInsights(c.Request.Context(), c.GetUint("userID"), surveyID, regenerate)
	if err != nil {
		if errors.Is(err, service.ErrAccessDenied) {
			log.Warn().Uint("surveyID", surveyID).Uint("userID", c.GetUint("userID")).Msg("GetInsights: access denied")
		}
		errorJSON(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Health godoc
// @Summary Liveness and database check
// @Tags System
// @Produce json
// @Success 200 {object} dto.HealthResponse
// @Failure 503 {object} dto.HealthResponse
// @Router /healthz [get]
func (ctrl *SurveyAPIController) Health(c *gin.Context) {
	sqlDB, err := ctrl.db.DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		log.Error().Err(err).Msg("Health: database unavailable")
		c.JSON(http.StatusServiceUnavailable, dto.HealthResponse{Status: "unavailable"})
		return
	}
	c.JSON(http.StatusOK, dto.HealthResponse{Status: "ok"})
}
