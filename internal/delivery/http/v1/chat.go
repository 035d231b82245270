package v1

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dkurilenko/go-todo-agent/internal/models"
	"github.com/dkurilenko/go-todo-agent/internal/services"
)

type chatRequest struct {
	ConversationID string `json:"conversation_id,omitempty"`
	Message        string `json:"message" binding:"required,min=1,max=10000"`
}

type chatResponse struct {
	ConversationID string              `json:"conversation_id"`
	Response       string              `json:"response"`
	ToolCalls      []services.ToolCall `json:"tool_calls,omitempty"`
}

func (h *handlerImpl) HandleChat(c *gin.Context) {
	userID, _ := getStringFromContext(c, userIDCtxKey)

	var req chatRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Warn().
			Err(err).
			Msg("failed to bind json")
		abortWithDetail(c, http.StatusBadRequest, "message must be 1-10000 characters")
		return
	}

	result, err := h.chat.SendMessage(c, services.SendMessageParams{
		UserID:         userID,
		ConversationID: req.ConversationID,
		Message:        req.Message,
	})
	if err != nil {
		if errors.Is(err, services.ErrConversationNotFound) {
			abortWithDetail(c, http.StatusNotFound, "Conversation not found")
			return
		}

		h.logger.Error().
			Err(err).
			Str("user_id", userID).
			Msg("chat turn failed")
		abortWithDetail(c, http.StatusInternalServerError,
			"I'm having trouble right now. Please try again.")
		return
	}

	c.JSON(http.StatusOK, chatResponse{
		ConversationID: result.ConversationID,
		Response:       result.Response,
		ToolCalls:      result.ToolCalls,
	})
}

type messageInfo struct {
	ID        int64     `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

func newMessageInfo(message *models.Message) messageInfo {
	return messageInfo{
		ID:        message.ID,
		Role:      message.Role,
		Content:   message.Content,
		CreatedAt: message.CreatedAt,
	}
}

type chatHistoryResponse struct {
	ConversationID *string       `json:"conversation_id"`
	Messages       []messageInfo `json:"messages"`
}

func (h *handlerImpl) HandleChatHistory(c *gin.Context) {
	userID, _ := getStringFromContext(c, userIDCtxKey)

	history, err := h.chat.GetHistory(c, userID)
	if err != nil {
		h.logger.Error().
			Err(err).
			Str("user_id", userID).
			Msg("failed to get chat history")
		abortInternal(c)
		return
	}

	response := chatHistoryResponse{
		Messages: make([]messageInfo, len(history.Messages)),
	}
	if history.ConversationID != "" {
		response.ConversationID = &history.ConversationID
	}
	for i, message := range history.Messages {
		response.Messages[i] = newMessageInfo(message)
	}

	c.JSON(http.StatusOK, response)
}
