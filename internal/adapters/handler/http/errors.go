package http

import (
	"errors"
	"log"
	"net/http"

	"github.com/comitanigiacomo/syllabus-pulse/internal/core/domain"
	"github.com/gin-gonic/gin"
)

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrDecode),
		errors.Is(err, domain.ErrInvalidDate):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrInvalidPin):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrSetupCompleted),
		errors.Is(err, domain.ErrSetupRequired):
		return http.StatusConflict
	case errors.Is(err, domain.ErrChapterNotFound),
		errors.Is(err, domain.ErrTaskNotScheduled):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrMissingCredentials),
		errors.Is(err, domain.ErrMissingToken):
		return http.StatusPreconditionFailed
	case errors.Is(err, domain.ErrAuth):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrNetwork):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		log.Printf("[HTTP] %s %s: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(status, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
