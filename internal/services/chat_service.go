package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/dkurilenko/go-todo-agent/internal/models"
)

type chatServiceImpl struct {
	logger    zerolog.Logger
	pgPool    *pgxpool.Pool
	converser Converser
}

func NewChatService(
	logger zerolog.Logger,
	pgPool *pgxpool.Pool,
	converser Converser,
) ChatService {
	return &chatServiceImpl{
		logger:    logger,
		pgPool:    pgPool,
		converser: converser,
	}
}

func (s *chatServiceImpl) SendMessage(ctx context.Context, params SendMessageParams) (*ChatResult, error) {
	var (
		conversation *models.Conversation
		err          error
	)
	if params.ConversationID != "" {
		conversation, err = s.getConversationByID(ctx, params.ConversationID, params.UserID)
	} else {
		conversation, err = s.getOrCreateConversation(ctx, params.UserID)
	}
	if err != nil {
		return nil, err
	}

	history, err := s.listMessages(ctx, conversation.ID)
	if err != nil {
		return nil, err
	}

	userMessage, err := s.insertMessage(ctx, conversation.ID, params.UserID, models.RoleUser, params.Message)
	if err != nil {
		return nil, err
	}
	history = append(history, userMessage)

	// The user message is already durable at this point; a model
	// failure leaves it persisted with no assistant reply.
	result, err := s.converser.Converse(ctx, history, params.UserID)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("user_id", params.UserID).
			Str("conversation_id", conversation.ID).
			Msg("model turn failed")
		return nil, err
	}

	_, err = s.insertMessage(ctx, conversation.ID, params.UserID, models.RoleAssistant, result.Reply)
	if err != nil {
		return nil, err
	}

	err = s.touchConversation(ctx, conversation.ID)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("user_id", params.UserID).
		Str("conversation_id", conversation.ID).
		Int("tool_calls", len(result.ToolCalls)).
		Msg("processed chat turn")
	return &ChatResult{
		ConversationID: conversation.ID,
		Response:       result.Reply,
		ToolCalls:      result.ToolCalls,
	}, nil
}

func (s *chatServiceImpl) GetHistory(ctx context.Context, userID string) (*ChatHistory, error) {
	conversation, err := s.getConversationByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrConversationNotFound) {
			return &ChatHistory{}, nil
		}
		return nil, err
	}

	messages, err := s.listMessages(ctx, conversation.ID)
	if err != nil {
		return nil, err
	}

	return &ChatHistory{
		ConversationID: conversation.ID,
		Messages:       messages,
	}, nil
}

func (s *chatServiceImpl) getConversationByID(ctx context.Context, conversationID, userID string) (*models.Conversation, error) {
	conversation := &models.Conversation{
		ID:     conversationID,
		UserID: userID,
	}

	const selectConversationByIDQuery = `
SELECT created_at,
       updated_at
FROM conversations
WHERE id = $1 AND user_id = $2
`
	err := s.pgPool.QueryRow(
		ctx,
		selectConversationByIDQuery,
		conversation.ID,
		conversation.UserID,
	).Scan(
		&conversation.CreatedAt,
		&conversation.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.logger.Warn().
				Str("conversation_id", conversationID).
				Str("user_id", userID).
				Msg("conversation not found")
			return nil, ErrConversationNotFound
		}

		s.logger.Error().
			Err(err).
			Str("conversation_id", conversationID).
			Msg("failed to select conversation by id")
		return nil, err
	}

	return conversation, nil
}

func (s *chatServiceImpl) getConversationByUserID(ctx context.Context, userID string) (*models.Conversation, error) {
	conversation := &models.Conversation{UserID: userID}

	const selectConversationByUserIDQuery = `
SELECT id,
       created_at,
       updated_at
FROM conversations
WHERE user_id = $1
`
	err := s.pgPool.QueryRow(
		ctx,
		selectConversationByUserIDQuery,
		conversation.UserID,
	).Scan(
		&conversation.ID,
		&conversation.CreatedAt,
		&conversation.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrConversationNotFound
		}

		s.logger.Error().
			Err(err).
			Str("user_id", userID).
			Msg("failed to select conversation by user id")
		return nil, err
	}

	return conversation, nil
}

// getOrCreateConversation resolves the user's single conversation,
// creating it lazily on the first chat turn. A concurrent insert racing
// on the user_id unique constraint falls back to reading the winner.
func (s *chatServiceImpl) getOrCreateConversation(ctx context.Context, userID string) (*models.Conversation, error) {
	conversation, err := s.getConversationByUserID(ctx, userID)
	if err == nil {
		return conversation, nil
	}
	if !errors.Is(err, ErrConversationNotFound) {
		return nil, err
	}

	conversationUUID, err := uuid.NewV7()
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to generate conversation uuid")
		return nil, err
	}

	now := time.Now()
	conversation = &models.Conversation{
		ID:        conversationUUID.String(),
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	const insertConversationQuery = `
INSERT INTO conversations (id,
                           user_id,
                           created_at,
                           updated_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (user_id) DO NOTHING
`
	tag, err := s.pgPool.Exec(
		ctx,
		insertConversationQuery,
		conversation.ID,
		conversation.UserID,
		conversation.CreatedAt,
		conversation.UpdatedAt,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("user_id", userID).
			Msg("failed to insert conversation")
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return s.getConversationByUserID(ctx, userID)
	}

	s.logger.Info().
		Str("conversation_id", conversation.ID).
		Str("user_id", userID).
		Msg("created conversation")
	return conversation, nil
}

func (s *chatServiceImpl) listMessages(ctx context.Context, conversationID string) ([]*models.Message, error) {
	const selectMessagesQuery = `
SELECT id,
       user_id,
       role,
       content,
       created_at
FROM messages
WHERE conversation_id = $1
ORDER BY created_at, id
`
	rows, err := s.pgPool.Query(
		ctx,
		selectMessagesQuery,
		conversationID,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("conversation_id", conversationID).
			Msg("failed to select messages")
		return nil, err
	}
	defer rows.Close()

	var messages []*models.Message
	for rows.Next() {
		message := &models.Message{ConversationID: conversationID}
		err = rows.Scan(
			&message.ID,
			&message.UserID,
			&message.Role,
			&message.Content,
			&message.CreatedAt,
		)
		if err != nil {
			s.logger.Error().
				Err(err).
				Msg("failed to scan message")
			return nil, err
		}
		messages = append(messages, message)
	}

	err = rows.Err()
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to iterate over rows")
		return nil, err
	}

	return messages, nil
}

func (s *chatServiceImpl) insertMessage(ctx context.Context, conversationID, userID, role, content string) (*models.Message, error) {
	message := &models.Message{
		ConversationID: conversationID,
		UserID:         userID,
		Role:           role,
		Content:        content,
		CreatedAt:      time.Now(),
	}

	const insertMessageQuery = `
INSERT INTO messages (conversation_id,
                      user_id,
                      role,
                      content,
                      created_at)
VALUES ($1, $2, $3, $4, $5)
RETURNING id
`
	err := s.pgPool.QueryRow(
		ctx,
		insertMessageQuery,
		message.ConversationID,
		message.UserID,
		message.Role,
		message.Content,
		message.CreatedAt,
	).Scan(&message.ID)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("conversation_id", conversationID).
			Str("role", role).
			Msg("failed to insert message")
		return nil, err
	}

	return message, nil
}

func (s *chatServiceImpl) touchConversation(ctx context.Context, conversationID string) error {
	const updateConversationQuery = `
UPDATE conversations
SET updated_at = $1
WHERE id = $2
`
	_, err := s.pgPool.Exec(
		ctx,
		updateConversationQuery,
		time.Now(),
		conversationID,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("conversation_id", conversationID).
			Msg("failed to update conversation timestamp")
		return err
	}
	return nil
}
