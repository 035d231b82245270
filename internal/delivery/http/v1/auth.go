package v1

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dkurilenko/go-todo-agent/internal/services"
)

type authRequest struct {
	UserID   string `json:"user_id" binding:"required,max=255"`
	Password string `json:"password" binding:"required"`
}

type authResponse struct {
	AccessToken string `json:"access_token"`
	UserID      string `json:"user_id"`
	TokenType   string `json:"token_type"`
}

func newAuthResponse(result *services.AuthResult) authResponse {
	return authResponse{
		AccessToken: result.AccessToken,
		UserID:      result.UserID,
		TokenType:   "bearer",
	}
}

func (h *handlerImpl) HandleSignup(c *gin.Context) {
	var req authRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Warn().
			Err(err).
			Msg("failed to bind json")
		abortWithDetail(c, http.StatusBadRequest, "user_id and password are required")
		return
	}

	result, err := h.auth.Signup(c, services.SignupParams{
		UserID:   req.UserID,
		Password: req.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidUserID),
			errors.Is(err, services.ErrPasswordTooShort):
			abortWithDetail(c, http.StatusBadRequest, err.Error())
		case errors.Is(err, services.ErrUserAlreadyExists):
			abortWithDetail(c, http.StatusConflict, "User ID already exists")
		default:
			h.logger.Error().
				Err(err).
				Msg("failed to signup")
			abortInternal(c)
		}
		return
	}

	c.JSON(http.StatusCreated, newAuthResponse(result))
}

func (h *handlerImpl) HandleLogin(c *gin.Context) {
	var req authRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Warn().
			Err(err).
			Msg("failed to bind json")
		abortWithDetail(c, http.StatusBadRequest, "user_id and password are required")
		return
	}

	result, err := h.auth.Login(c, services.LoginParams{
		UserID:   req.UserID,
		Password: req.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidUserID),
			errors.Is(err, services.ErrPasswordRequired):
			abortWithDetail(c, http.StatusBadRequest, err.Error())
		case errors.Is(err, services.ErrUserNotFound):
			abortWithDetail(c, http.StatusUnauthorized, "Invalid credentials")
		default:
			h.logger.Error().
				Err(err).
				Msg("failed to login")
			abortInternal(c)
		}
		return
	}

	c.JSON(http.StatusOK, newAuthResponse(result))
}
