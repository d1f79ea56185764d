package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/lshigami/adaptive-survey/internal/dto"
	"github.com/lshigami/adaptive-survey/internal/session"
	"github.com/rs/zerolog/log"
)

const loginNotice = "Please log in to access this page."

// Session loads the cookie session into the gin context.
func Session(m *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		session.Attach(c, m.Load(c))
		c.Next()
	}
}

// RequireLogin rejects anonymous requests: JSON routes get 401, pages are
// redirected to /login with a flash notice.
func RequireLogin(m *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := session.FromContext(c)
		if sess.LoggedIn() {
			c.Set("userID", sess.UserID)
			c.Next()
			return
		}

		if strings.HasPrefix(c.Request.URL.Path, "/api/") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorResponse{Message: "Authentication required"})
			return
		}
		sess.AddFlash(loginNotice)
		if err := m.Save(c, sess); err != nil {
			log.Error().Err(err).Msg("RequireLogin: failed to save session")
		}
		c.Redirect(http.StatusFound, "/login")
		c.Abort()
	}
}
