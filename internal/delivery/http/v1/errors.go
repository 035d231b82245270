package v1

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	authErrorUnauthorized = "UNAUTHORIZED"
	authErrorInvalidToken = "INVALID_TOKEN"
	authErrorTokenExpired = "TOKEN_EXPIRED"
	authErrorForbidden    = "FORBIDDEN"
)

// abortWithDetail is the plain error shape used by every non-auth failure.
func abortWithDetail(c *gin.Context, status int, detail string) {
	c.AbortWithStatusJSON(status, gin.H{"detail": detail})
}

// abortWithAuthError is the structured envelope auth failures use.
func abortWithAuthError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"error":     code,
		"message":   message,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func abortInternal(c *gin.Context) {
	abortWithDetail(c, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
}
