package web

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lshigami/adaptive-survey/internal/controller"
	"github.com/lshigami/adaptive-survey/internal/dto"
	"github.com/lshigami/adaptive-survey/internal/middleware"
	"github.com/lshigami/adaptive-survey/internal/service"
	"github.com/lshigami/adaptive-survey/internal/session"
	"github.com/rs/zerolog/log"
)

// WebController serves the HTML pages: auth, dashboard, survey creation,
// survey taking and insights.
type WebController struct {
	sessions       *session.Manager
	authService    service.AuthService
	surveyService  service.SurveyService
	progression    service.ProgressionService
	insightService service.InsightSynthesizer
}

func NewWebController(
	sessions *session.Manager,
	authService service.AuthService,
	surveyService service.SurveyService,
	progression service.ProgressionService,
	insightService service.InsightSynthesizer,
) *WebController {
	return &WebController{
		sessions:       sessions,
		authService:    authService,
		surveyService:  surveyService,
		progression:    progression,
		insightService: insightService,
	}
}

func (ctrl *WebController) RegisterRoutes(router *gin.Engine) {
	router.GET("/", ctrl.Index)
	router.GET("/login", ctrl.LoginPage)
	router.POST("/login", ctrl.Login)
	router.GET("/register", ctrl.RegisterPage)
	router.POST("/register", ctrl.Register)
	router.GET("/logout", ctrl.Logout)
	router.GET("/survey/:id", ctrl.TakeSurvey)

	authed := router.Group("/", middleware.RequireLogin(ctrl.sessions))
	{
		authed.GET("/dashboard", ctrl.Dashboard)
		authed.GET("/create", ctrl.CreatePage)
		authed.POST("/create", ctrl.Create)
		authed.GET("/insights/:id", ctrl.Insights)
		authed.POST("/survey/:id/active", ctrl.SetActive)
	}

	router.NoRoute(func(c *gin.Context) {
		ctrl.render(c, http.StatusNotFound, "not_found.html", gin.H{"Title": "Not found"})
	})
}

// render adds the shared layout fields, flushes flashes into the page and
// persists the session before writing the body.
func (ctrl *WebController) render(c *gin.Context, status int, name string, data gin.H) {
	sess := session.FromContext(c)
	data["User"] = sess.Username
	data["Flashes"] = sess.PopFlashes()
	if err := ctrl.sessions.Save(c, sess); err != nil {
		log.Error().Err(err).Msg("render: failed to save session")
	}
	c.HTML(status, name, data)
}

func (ctrl *WebController) redirect(c *gin.Context, location, flash string) {
	sess := session.FromContext(c)
	if flash != "" {
		sess.AddFlash(flash)
	}
	if err := ctrl.sessions.Save(c, sess); err != nil {
		log.Error().Err(err).Msg("redirect: failed to save session")
	}
	c.Redirect(http.StatusFound, location)
}

func (ctrl *WebController) renderError(c *gin.Context, err error) {
	status := controller.StatusFor(err)
	if status == http.StatusNotFound {
		ctrl.render(c, status, "not_found.html", gin.H{"Title": "Not found", "Message": "This survey does not exist or is no longer active."})
		return
	}
	log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("web: request failed")
	ctrl.render(c, status, "error.html", gin.H{"Title": "Error", "Message": controller.PublicMessage(err)})
}

func (ctrl *WebController) Index(c *gin.Context) {
	ctrl.render(c, http.StatusOK, "index.html", gin.H{"Title": ""})
}

func (ctrl *WebController) LoginPage(c *gin.Context) {
	if session.FromContext(c).LoggedIn() {
		c.Redirect(http.StatusFound, "/dashboard")
		return
	}
	ctrl.render(c, http.StatusOK, "login.html", gin.H{"Title": "Log in"})
}

func (ctrl *WebController) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		session.FromContext(c).AddFlash("Email and password are required.")
		ctrl.render(c, http.StatusBadRequest, "login.html", gin.H{"Title": "Log in", "Email": req.Email})
		return
	}

	user, err := ctrl.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if !errors.Is(err, service.ErrInvalidCredentials) {
			log.Error().Err(err).Msg("Login: service error")
		}
		session.FromContext(c).AddFlash("Invalid email or password.")
		ctrl.render(c, controller.StatusFor(err), "login.html", gin.H{"Title": "Log in", "Email": req.Email})
		return
	}

	session.FromContext(c).LogIn(user.ID, user.Username)
	log.Info().Uint("userID", user.ID).Msg("Login: user logged in")
	ctrl.redirect(c, "/dashboard", "Logged in successfully.")
}

func (ctrl *WebController) RegisterPage(c *gin.Context) {
	ctrl.render(c, http.StatusOK, "register.html", gin.H{"Title": "Register"})
}

func (ctrl *WebController) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBind(&req); err != nil {
		session.FromContext(c).AddFlash("Username, email and password are required.")
		ctrl.render(c, http.StatusBadRequest, "register.html", gin.H{"Title": "Register", "Username": req.Username, "Email": req.Email})
		return
	}

	if _, err := ctrl.authService.Register(c.Request.Context(), req.Username, req.Email, req.Password); err != nil {
		status := controller.StatusFor(err)
		if status == http.StatusInternalServerError {
			log.Error().Err(err).Msg("Register: service error")
		}
		session.FromContext(c).AddFlash(controller.PublicMessage(err))
		ctrl.render(c, status, "register.html", gin.H{"Title": "Register", "Username": req.Username, "Email": req.Email})
		return
	}
	ctrl.redirect(c, "/login", "Registration successful. Please log in.")
}

func (ctrl *WebController) Logout(c *gin.Context) {
	session.FromContext(c).LogOut()
	ctrl.redirect(c, "/", "You have been logged out.")
}

func (ctrl *WebController) Dashboard(c *gin.Context) {
	surveys, err := ctrl.surveyService.ListOwned(c.Request.Context(), c.GetUint("userID"))
	if err != nil {
		ctrl.renderError(c, err)
		return
	}
	ctrl.render(c, http.StatusOK, "dashboard.html", gin.H{"Title": "Dashboard", "Surveys": surveys})
}

func (ctrl *WebController) CreatePage(c *gin.Context) {
	ctrl.render(c, http.StatusOK, "create_survey.html", gin.H{"Title": "New survey", "Form": dto.CreateSurveyRequest{}})
}

func (ctrl *WebController) Create(c *gin.Context) {
	var req dto.CreateSurveyRequest
	if err := c.ShouldBind(&req); err != nil {
		session.FromContext(c).AddFlash("Title and main question are required.")
		ctrl.render(c, http.StatusBadRequest, "create_survey.html", gin.H{"Title": "New survey", "Form": req})
		return
	}

	survey, err := ctrl.surveyService.Create(c.Request.Context(), c.GetUint("userID"), req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidInput) {
			session.FromContext(c).AddFlash("Title and main question are required.")
			ctrl.render(c, http.StatusBadRequest, "create_survey.html", gin.H{"Title": "New survey", "Form": req})
			return
		}
		ctrl.renderError(c, err)
		return
	}
	log.Info().Uint("surveyID", survey.ID).Msg("Create: survey created from form")
	ctrl.redirect(c, "/dashboard", fmt.Sprintf("Survey created. Share /survey/%d with respondents.", survey.ID))
}

// TakeSurvey performs one progression step for the session's respondent.
func (ctrl *WebController) TakeSurvey(c *gin.Context) {
	surveyID, ok := controller.ParseID(c, "id")
	if !ok {
		ctrl.render(c, http.StatusNotFound, "not_found.html", gin.H{"Title": "Not found"})
		return
	}

	respondentID, _ := session.FromContext(c).EnsureRespondentID()
	step, err := ctrl.progression.Advance(c.Request.Context(), surveyID, respondentID)
	if err != nil {
		ctrl.renderError(c, err)
		return
	}
	if step.Completed {
		ctrl.render(c, http.StatusOK, "survey_complete.html", gin.H{"Title": step.Survey.Title, "Step": step})
		return
	}
	ctrl.render(c, http.StatusOK, "take_survey.html", gin.H{"Title": step.Survey.Title, "Step": step})
}

// Insights regenerates insights for the owner and shows every stored round.
func (ctrl *WebController) Insights(c *gin.Context) {
	surveyID, ok := controller.ParseID(c, "id")
	if !ok {
		ctrl.render(c, http.StatusNotFound, "not_found.html", gin.H{"Title": "Not found"})
		return
	}

	result, err := ctrl.insightService.OwnerInsights(c.Request.Context(), c.GetUint("userID"), surveyID, true)
	if err != nil {
		if errors.Is(err, service.ErrAccessDenied) {
			log.Warn().Uint("surveyID", surveyID).Uint("userID", c.GetUint("userID")).Msg("Insights: access denied")
			ctrl.redirect(c, "/dashboard", "You do not have access to these insights.")
			return
		}
		ctrl.renderError(c, err)
		return
	}
	ctrl.render(c, http.StatusOK, "insights.html", gin.H{"Title": "Insights", "Result": result})
}

func (ctrl *WebController) SetActive(c *gin.Context) {
	surveyID, ok := controller.ParseID(c, "id")
	if !ok {
		ctrl.render(c, http.StatusNotFound, "not_found.html", gin.H{"Title": "Not found"})
		return
	}
	var req dto.SetActiveRequest
	if err := c.ShouldBind(&req); err != nil {
		ctrl.redirect(c, "/dashboard", "Invalid request.")
		return
	}

	err := ctrl.surveyService.SetActive(c.Request.Context(), c.GetUint("userID"), surveyID, req.Active)
	switch {
	case errors.Is(err, service.ErrAccessDenied):
		ctrl.redirect(c, "/dashboard", "You do not have access to this survey.")
	case err != nil:
		ctrl.renderError(c, err)
	case req.Active:
		ctrl.redirect(c, "/dashboard", "Survey activated.")
	default:
		ctrl.redirect(c, "/dashboard", "Survey deactivated.")
	}
}
