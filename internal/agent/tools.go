package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/dkurilenko/go-todo-agent/internal/models"
	"github.com/dkurilenko/go-todo-agent/internal/services"
)

const (
	toolAddTask      = "add_task"
	toolListTasks    = "list_tasks"
	toolCompleteTask = "complete_task"
	toolUpdateTask   = "update_task"
	toolDeleteTask   = "delete_task"
)

// Bridge exposes task operations to the model as named actions. Every
// outcome, including validation and lookup failures, is encoded in a
// JSON envelope so the model can react in natural language; Invoke
// never fails the turn. The bridge trusts the user_id argument it is
// given — the caller injects the authenticated identifier.
type Bridge struct {
	logger zerolog.Logger
	tasks  services.TaskService
}

func NewBridge(logger zerolog.Logger, tasks services.TaskService) *Bridge {
	return &Bridge{
		logger: logger,
		tasks:  tasks,
	}
}

func (b *Bridge) Invoke(ctx context.Context, name, args string) string {
	switch name {
	case toolAddTask:
		return b.addTask(ctx, args)
	case toolListTasks:
		return b.listTasks(ctx, args)
	case toolCompleteTask:
		return b.completeTask(ctx, args)
	case toolUpdateTask:
		return b.updateTask(ctx, args)
	case toolDeleteTask:
		return b.deleteTask(ctx, args)
	default:
		b.logger.Warn().
			Str("tool", name).
			Msg("unknown tool requested")
		return errorEnvelope(fmt.Sprintf("unknown tool: %s", name))
	}
}

func (b *Bridge) addTask(ctx context.Context, args string) string {
	userID := strings.TrimSpace(gjson.Get(args, "user_id").String())
	if userID == "" {
		return errorEnvelope("user_id is required")
	}

	title := strings.TrimSpace(gjson.Get(args, "title").String())
	if title == "" {
		return errorEnvelope("Title is required")
	}
	if len(title) > 255 {
		return errorEnvelope("Title must be 255 characters or fewer")
	}

	description := gjson.Get(args, "description").String()
	if len(description) > 1000 {
		return errorEnvelope("Description must be 1000 characters or fewer")
	}

	task, err := b.tasks.CreateTask(ctx, services.CreateTaskParams{
		UserID:      userID,
		Title:       title,
		Description: description,
	})
	if err != nil {
		return b.serviceErrorEnvelope(err, "failed to create task")
	}

	out, _ := sjson.SetRaw(`{"status":"success"}`, "task", taskJSON(task))
	return out
}

func (b *Bridge) listTasks(ctx context.Context, args string) string {
	userID := strings.TrimSpace(gjson.Get(args, "user_id").String())
	if userID == "" {
		return errorEnvelope("user_id is required")
	}

	tasks, err := b.tasks.GetTasksByUserID(ctx, userID, 0, 0)
	if err != nil {
		return b.serviceErrorEnvelope(err, "failed to list tasks")
	}

	out, _ := sjson.SetRaw(`{"status":"success"}`, "tasks", "[]")
	for _, task := range tasks {
		out, _ = sjson.SetRaw(out, "tasks.-1", taskJSON(task))
	}
	out, _ = sjson.Set(out, "count", len(tasks))
	return out
}

func (b *Bridge) completeTask(ctx context.Context, args string) string {
	userID := strings.TrimSpace(gjson.Get(args, "user_id").String())
	if userID == "" {
		return errorEnvelope("user_id is required")
	}

	taskID := gjson.Get(args, "task_id").Int()
	if taskID < 1 {
		return errorEnvelope("task_id must be a positive integer")
	}

	task, err := b.tasks.ToggleTaskCompletion(ctx, taskID, userID)
	if err != nil {
		if errors.Is(err, services.ErrTaskNotFound) {
			return errorEnvelope(fmt.Sprintf("Task with ID %d not found for this user", taskID))
		}
		return b.serviceErrorEnvelope(err, "failed to toggle task")
	}

	out, _ := sjson.SetRaw(`{"status":"success"}`, "task", taskJSON(task))
	return out
}

func (b *Bridge) updateTask(ctx context.Context, args string) string {
	userID := strings.TrimSpace(gjson.Get(args, "user_id").String())
	if userID == "" {
		return errorEnvelope("user_id is required")
	}

	taskID := gjson.Get(args, "task_id").Int()
	if taskID < 1 {
		return errorEnvelope("task_id must be a positive integer")
	}

	var patch services.TaskPatch
	if title := gjson.Get(args, "title"); title.Exists() {
		value := strings.TrimSpace(title.String())
		if value == "" || len(value) > 255 {
			return errorEnvelope("Title must be 1-255 characters")
		}
		patch.Title = &value
	}
	if description := gjson.Get(args, "description"); description.Exists() {
		value := description.String()
		if len(value) > 1000 {
			return errorEnvelope("Description must be 1000 characters or fewer")
		}
		patch.Description = &value
	}
	if patch.Title == nil && patch.Description == nil {
		return errorEnvelope("At least one field (title or description) must be provided")
	}

	task, err := b.tasks.UpdateTask(ctx, services.UpdateTaskParams{
		ID:     taskID,
		UserID: userID,
		Patch:  patch,
	})
	if err != nil {
		if errors.Is(err, services.ErrTaskNotFound) {
			return errorEnvelope(fmt.Sprintf("Task with ID %d not found for this user", taskID))
		}
		return b.serviceErrorEnvelope(err, "failed to update task")
	}

	out, _ := sjson.SetRaw(`{"status":"success"}`, "task", taskJSON(task))
	return out
}

func (b *Bridge) deleteTask(ctx context.Context, args string) string {
	userID := strings.TrimSpace(gjson.Get(args, "user_id").String())
	if userID == "" {
		return errorEnvelope("user_id is required")
	}

	taskID := gjson.Get(args, "task_id").Int()
	if taskID < 1 {
		return errorEnvelope("task_id must be a positive integer")
	}

	err := b.tasks.DeleteTask(ctx, taskID, userID)
	if err != nil {
		if errors.Is(err, services.ErrTaskNotFound) {
			return errorEnvelope(fmt.Sprintf("Task with ID %d not found for this user", taskID))
		}
		return b.serviceErrorEnvelope(err, "failed to delete task")
	}

	out, _ := sjson.Set(`{"status":"success"}`, "message", fmt.Sprintf("Task %d deleted successfully", taskID))
	return out
}

// serviceErrorEnvelope surfaces validation errors verbatim and hides
// everything else behind a generic message; the detail is logged.
func (b *Bridge) serviceErrorEnvelope(err error, logMsg string) string {
	switch {
	case errors.Is(err, services.ErrInvalidTaskTitle),
		errors.Is(err, services.ErrInvalidTaskDescription):
		return errorEnvelope(err.Error())
	default:
		b.logger.Error().
			Err(err).
			Msg(logMsg)
		return errorEnvelope("internal error, please try again")
	}
}

func errorEnvelope(message string) string {
	out, _ := sjson.Set(`{"status":"error"}`, "message", message)
	return out
}

func taskJSON(task *models.Task) string {
	out := "{}"
	out, _ = sjson.Set(out, "id", task.ID)
	out, _ = sjson.Set(out, "title", task.Title)
	out, _ = sjson.Set(out, "description", task.Description)
	out, _ = sjson.Set(out, "completed", task.Completed)
	out, _ = sjson.Set(out, "created_at", task.CreatedAt.Format(time.RFC3339))
	out, _ = sjson.Set(out, "updated_at", task.UpdatedAt.Format(time.RFC3339))
	return out
}

func (b *Bridge) Definitions() []openai.ChatCompletionToolUnionParam {
	userIDProperty := map[string]any{
		"type":        "string",
		"description": "The ID of the user who owns the task.",
	}
	taskIDProperty := map[string]any{
		"type":        "integer",
		"description": "The ID of the task.",
	}

	return []openai.ChatCompletionToolUnionParam{
		openai.ChatCompletionFunctionTool(openai.FunctionDefinitionParam{
			Name:        toolAddTask,
			Description: openai.String("Create a new task for the user."),
			Parameters: openai.FunctionParameters{
				"type": "object",
				"properties": map[string]any{
					"user_id": userIDProperty,
					"title": map[string]any{
						"type":        "string",
						"description": "The title of the task (1-255 chars).",
					},
					"description": map[string]any{
						"type":        "string",
						"description": "Optional description of the task (0-1000 chars).",
					},
				},
				"required": []string{"user_id", "title"},
			},
		}),
		openai.ChatCompletionFunctionTool(openai.FunctionDefinitionParam{
			Name:        toolListTasks,
			Description: openai.String("List all tasks for the user."),
			Parameters: openai.FunctionParameters{
				"type": "object",
				"properties": map[string]any{
					"user_id": userIDProperty,
				},
				"required": []string{"user_id"},
			},
		}),
		openai.ChatCompletionFunctionTool(openai.FunctionDefinitionParam{
			Name:        toolCompleteTask,
			Description: openai.String("Mark a task as completed (toggle)."),
			Parameters: openai.FunctionParameters{
				"type": "object",
				"properties": map[string]any{
					"user_id": userIDProperty,
					"task_id": taskIDProperty,
				},
				"required": []string{"user_id", "task_id"},
			},
		}),
		openai.ChatCompletionFunctionTool(openai.FunctionDefinitionParam{
			Name:        toolUpdateTask,
			Description: openai.String("Update a task's title or description."),
			Parameters: openai.FunctionParameters{
				"type": "object",
				"properties": map[string]any{
					"user_id": userIDProperty,
					"task_id": taskIDProperty,
					"title": map[string]any{
						"type":        "string",
						"description": "New title for the task (optional, 1-255 chars).",
					},
					"description": map[string]any{
						"type":        "string",
						"description": "New description for the task (optional, 0-1000 chars).",
					},
				},
				"required": []string{"user_id", "task_id"},
			},
		}),
		openai.ChatCompletionFunctionTool(openai.FunctionDefinitionParam{
			Name:        toolDeleteTask,
			Description: openai.String("Delete a task permanently."),
			Parameters: openai.FunctionParameters{
				"type": "object",
				"properties": map[string]any{
					"user_id": userIDProperty,
					"task_id": taskIDProperty,
				},
				"required": []string{"user_id", "task_id"},
			},
		}),
	}
}
