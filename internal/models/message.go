package models

import "time"

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	ID             int64
	ConversationID string
	UserID         string
	Role           string
	Content        string
	CreatedAt      time.Time
}
