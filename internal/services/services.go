package services

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dkurilenko/go-todo-agent/internal/models"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("user already exists")
	ErrInvalidUserID     = errors.New("user id must be 1-255 characters")
	ErrPasswordRequired  = errors.New("password is required")
	ErrPasswordTooShort  = errors.New("password must be at least 6 characters")

	ErrTaskNotFound           = errors.New("task not found")
	ErrInvalidTaskTitle       = errors.New("title must be 1-255 characters")
	ErrInvalidTaskDescription = errors.New("description must be 1000 characters or fewer")

	ErrConversationNotFound = errors.New("conversation not found")
)

type AuthService interface {
	// Signup creates a user with the given identifier and issues
	// an access token for it.
	//
	// It returns ErrUserAlreadyExists if the identifier is taken,
	// ErrInvalidUserID or ErrPasswordTooShort on bad input.
	Signup(ctx context.Context, params SignupParams) (*AuthResult, error)

	// Login issues an access token for an existing user.
	//
	// It returns ErrUserNotFound if the user with the given
	// identifier doesn't exist.
	Login(ctx context.Context, params LoginParams) (*AuthResult, error)

	// ParseJWTToken parses the given JWT token and returns the registered
	// claims or jwt.ErrTokenExpired if the token is expired.
	ParseJWTToken(token string) (*jwt.RegisteredClaims, error)
}

type SignupParams struct {
	UserID   string
	Password string
}

type LoginParams struct {
	UserID   string
	Password string
}

type AuthResult struct {
	UserID               string
	AccessToken          string
	AccessTokenExpiresAt time.Time
}

type TaskService interface {
	CreateTask(ctx context.Context, params CreateTaskParams) (*models.Task, error)
	GetTasksByUserID(ctx context.Context, userID string, offset, limit uint32) ([]*models.Task, error)
	GetTaskByID(ctx context.Context, taskID int64, userID string) (*models.Task, error)

	// UpdateTask applies only the fields set in the patch and
	// refreshes the task's updated_at timestamp.
	UpdateTask(ctx context.Context, params UpdateTaskParams) (*models.Task, error)

	// DeleteTask returns ErrTaskNotFound if no task matched
	// the (id, user id) pair.
	DeleteTask(ctx context.Context, taskID int64, userID string) error

	// ToggleTaskCompletion flips the task's completed flag.
	ToggleTaskCompletion(ctx context.Context, taskID int64, userID string) (*models.Task, error)
}

type CreateTaskParams struct {
	UserID      string
	Title       string
	Description string
	Completed   bool
}

// TaskPatch carries optional task fields; nil means "leave unchanged".
type TaskPatch struct {
	Title       *string
	Description *string
	Completed   *bool
}

type UpdateTaskParams struct {
	ID     int64
	UserID string
	Patch  TaskPatch
}

type ChatService interface {
	// SendMessage runs one conversation turn: it resolves the user's
	// conversation, persists the user message, lets the model respond
	// (possibly calling task tools) and persists the assistant reply.
	//
	// The user message stays persisted even when the model call fails.
	SendMessage(ctx context.Context, params SendMessageParams) (*ChatResult, error)

	GetHistory(ctx context.Context, userID string) (*ChatHistory, error)
}

type SendMessageParams struct {
	UserID         string
	ConversationID string
	Message        string
}

type ChatResult struct {
	ConversationID string
	Response       string
	ToolCalls      []ToolCall
}

// ToolCall records one tool invocation the model made during a turn.
type ToolCall struct {
	Tool  string `json:"tool"`
	Input any    `json:"input,omitempty"`
}

type ChatHistory struct {
	ConversationID string
	Messages       []*models.Message
}

// ConverseResult is what the model collaborator produced for a turn.
type ConverseResult struct {
	Reply     string
	ToolCalls []ToolCall
}

// Converser is the opaque language-model collaborator. Implementations
// decide which tools to call, in what order and how often; callers only
// see the final reply and the list of calls made.
type Converser interface {
	Converse(ctx context.Context, history []*models.Message, userID string) (*ConverseResult, error)
}
