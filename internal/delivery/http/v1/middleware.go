package v1

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const userIDCtxKey = "user_id"

func (h *handlerImpl) HandleAuthMiddleware(c *gin.Context) {
	header := c.GetHeader("Authorization")
	if header == "" {
		h.logger.Warn().Msg("authorization header required")
		abortWithAuthError(c, http.StatusUnauthorized,
			authErrorUnauthorized, "Unauthorized: Invalid or missing credentials")
		return
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		h.logger.Warn().Msg("invalid authorization header")
		abortWithAuthError(c, http.StatusUnauthorized,
			authErrorUnauthorized, "Unauthorized: Invalid or missing credentials")
		return
	}

	claims, err := h.auth.ParseJWTToken(parts[1])
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			h.logger.Warn().Msg("token expired")
			abortWithAuthError(c, http.StatusUnauthorized,
				authErrorTokenExpired, "Authentication token has expired")
			return
		}

		h.logger.Warn().
			Err(err).
			Msg("failed to parse token")
		abortWithAuthError(c, http.StatusUnauthorized,
			authErrorInvalidToken, "Invalid authentication token")
		return
	}

	if claims.Subject == "" {
		h.logger.Warn().Msg("token has no subject")
		abortWithAuthError(c, http.StatusUnauthorized,
			authErrorInvalidToken, "Invalid authentication token")
		return
	}

	c.Set(userIDCtxKey, claims.Subject)
	c.Next()
}

// HandleUserScopeMiddleware enforces the single authorization rule:
// the authenticated subject must equal the user_id path segment.
func (h *handlerImpl) HandleUserScopeMiddleware(c *gin.Context) {
	authenticatedUserID, ok := getStringFromContext(c, userIDCtxKey)
	if !ok {
		h.logger.Error().Msg("no user id found in context")
		abortWithAuthError(c, http.StatusUnauthorized,
			authErrorUnauthorized, "Unauthorized: Invalid or missing credentials")
		return
	}

	pathUserID := c.Param("user_id")
	if pathUserID != authenticatedUserID {
		h.logger.Warn().
			Str("user_id", authenticatedUserID).
			Str("path_user_id", pathUserID).
			Msg("path user id mismatch")
		abortWithAuthError(c, http.StatusForbidden,
			authErrorForbidden, "Forbidden: Insufficient permissions")
		return
	}

	c.Next()
}

func getStringFromContext(c *gin.Context, key string) (string, bool) {
	value, exists := c.Get(key)
	if !exists {
		return "", false
	}
	str, ok := value.(string)
	return str, ok
}
