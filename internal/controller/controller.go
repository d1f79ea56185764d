// Package controller holds helpers shared by the HTML and JSON controllers.
package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/lshigami/adaptive-survey/internal/service"
)

// ParseID reads a positive uint path parameter.
func ParseID(c *gin.Context, name string) (uint, bool) {
	v, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || v == 0 {
		return 0, false
	}
	return uint(v), true
}

// StatusFor maps service errors onto HTTP status codes.
func StatusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, service.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrAccessDenied):
		return http.StatusForbidden
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrInvalidState), errors.Is(err, service.ErrDuplicateAnswer), errors.Is(err, service.ErrUserExists):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage is the text shown to clients for err. Internal errors are
// not echoed.
func PublicMessage(err error) string {
	switch StatusFor(err) {
	case http.StatusBadRequest:
		return "Invalid request"
	case http.StatusUnauthorized:
		return service.ErrInvalidCredentials.Error()
	case http.StatusForbidden:
		return "You do not have access to this survey"
	case http.StatusNotFound:
		return "Not found"
	case http.StatusConflict:
		switch {
		case errors.Is(err, service.ErrDuplicateAnswer):
			return "This question has already been answered"
		case errors.Is(err, service.ErrUserExists):
			return service.ErrUserExists.Error()
		default:
			return "This survey response is already completed"
		}
	default:
		return "Internal server error"
	}
}
