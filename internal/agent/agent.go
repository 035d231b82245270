package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"

	"github.com/dkurilenko/go-todo-agent/internal/config"
	"github.com/dkurilenko/go-todo-agent/internal/models"
	"github.com/dkurilenko/go-todo-agent/internal/services"
)

const systemPrompt = `You are a helpful task management assistant. You help users manage their todo tasks through natural language conversation.

You have access to the following tools to manage tasks:
- add_task: Create a new task for the user
- list_tasks: List all tasks for the user
- complete_task: Mark a task as completed (toggle)
- update_task: Update a task's title or description
- delete_task: Delete a task permanently

IMPORTANT RULES:
1. Always use the user_id provided to you for ALL tool calls. Never make up or guess a user_id.
2. When the user asks to manage tasks, use the appropriate tool.
3. After performing an action, confirm what you did in natural language.
4. If a tool returns an error, explain it to the user in a friendly way.
5. For requests like "delete all completed tasks", first list tasks to find completed ones, then delete each one.
6. When listing tasks, format them in a readable way.
7. If the user makes a non-task request (greeting, general question), respond conversationally without invoking tools.
8. Never fabricate task IDs or task data. Only reference tasks returned by the tools.`

const fallbackReply = "I'm not sure how to respond to that. Could you rephrase?"

// Agent drives a conversation turn against the OpenAI chat completions
// API, letting the model call bridged task tools until it produces a
// final textual reply.
type Agent struct {
	logger    zerolog.Logger
	client    openai.Client
	model     openai.ChatModel
	maxRounds int
	bridge    *Bridge
}

func New(logger zerolog.Logger, cfg config.OpenAIConfig, bridge *Bridge) *Agent {
	return &Agent{
		logger:    logger,
		client:    openai.NewClient(option.WithAPIKey(cfg.APIKey)),
		model:     openai.ChatModel(cfg.Model),
		maxRounds: cfg.MaxToolRounds,
		bridge:    bridge,
	}
}

// buildMessages prepends the system prompt and an exchange pinning the
// authenticated user identifier before the stored history, so the model
// never has to (and must not) invent one.
func buildMessages(history []*models.Message, userID string) []openai.ChatCompletionMessageParamUnion {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(history)+3)
	messages = append(messages,
		openai.SystemMessage(systemPrompt),
		openai.UserMessage(fmt.Sprintf(
			"[System context: the current user_id is %q. You MUST pass this user_id to every tool call.]", userID)),
		openai.AssistantMessage("Understood. I will use the provided user_id for all tool operations."),
	)
	for _, message := range history {
		if message.Role == models.RoleAssistant {
			messages = append(messages, openai.AssistantMessage(message.Content))
		} else {
			messages = append(messages, openai.UserMessage(message.Content))
		}
	}
	return messages
}

func (a *Agent) Converse(ctx context.Context, history []*models.Message, userID string) (*services.ConverseResult, error) {
	params := openai.ChatCompletionNewParams{
		Model:    a.model,
		Messages: buildMessages(history, userID),
		Tools:    a.bridge.Definitions(),
	}

	var calls []services.ToolCall
	for round := 0; round < a.maxRounds; round++ {
		completion, err := a.client.Chat.Completions.New(ctx, params)
		if err != nil {
			return nil, fmt.Errorf("chat completion: %w", err)
		}
		if len(completion.Choices) == 0 {
			return nil, errors.New("chat completion returned no choices")
		}

		message := completion.Choices[0].Message
		if len(message.ToolCalls) == 0 {
			reply := strings.TrimSpace(message.Content)
			if reply == "" {
				reply = fallbackReply
			}
			return &services.ConverseResult{
				Reply:     reply,
				ToolCalls: calls,
			}, nil
		}

		params.Messages = append(params.Messages, message.ToParam())
		for _, toolCall := range message.ToolCalls {
			name := toolCall.Function.Name
			rawArgs := toolCall.Function.Arguments
			calls = append(calls, services.ToolCall{
				Tool:  name,
				Input: gjson.Parse(rawArgs).Value(),
			})

			a.logger.Debug().
				Str("tool", name).
				Str("user_id", userID).
				Msg("invoking bridged tool")
			output := a.bridge.Invoke(ctx, name, rawArgs)
			params.Messages = append(params.Messages, openai.ToolMessage(output, toolCall.ID))
		}
	}

	return nil, fmt.Errorf("model exceeded %d tool rounds", a.maxRounds)
}
