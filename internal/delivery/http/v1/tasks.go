package v1

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dkurilenko/go-todo-agent/internal/models"
	"github.com/dkurilenko/go-todo-agent/internal/services"
)

type taskResponse struct {
	ID          int64     `json:"id"`
	UserID      string    `json:"user_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Completed   bool      `json:"completed"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func newTaskResponse(task *models.Task) taskResponse {
	return taskResponse{
		ID:          task.ID,
		UserID:      task.UserID,
		Title:       task.Title,
		Description: task.Description,
		Completed:   task.Completed,
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
	}
}

type createTaskRequest struct {
	Title       string  `json:"title" binding:"required,max=255"`
	Description *string `json:"description,omitempty" binding:"omitempty,max=1000"`
	Completed   bool    `json:"completed"`
}

func (h *handlerImpl) HandleCreateTask(c *gin.Context) {
	userID, _ := getStringFromContext(c, userIDCtxKey)

	var req createTaskRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Warn().
			Err(err).
			Msg("failed to bind json")
		abortWithDetail(c, http.StatusBadRequest, "title must be 1-255 characters, description at most 1000")
		return
	}

	params := services.CreateTaskParams{
		UserID:    userID,
		Title:     req.Title,
		Completed: req.Completed,
	}
	if req.Description != nil {
		params.Description = *req.Description
	}

	task, err := h.tasks.CreateTask(c, params)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidTaskTitle),
			errors.Is(err, services.ErrInvalidTaskDescription):
			abortWithDetail(c, http.StatusBadRequest, err.Error())
		default:
			h.logger.Error().
				Err(err).
				Str("user_id", userID).
				Msg("failed to create task")
			abortInternal(c)
		}
		return
	}

	c.JSON(http.StatusCreated, newTaskResponse(task))
}

type listTasksQuery struct {
	Offset uint32 `form:"offset"`
	Limit  uint32 `form:"limit,default=100"`
}

type listTasksResponse struct {
	Tasks []taskResponse `json:"tasks"`
	Total int            `json:"total"`
}

func (h *handlerImpl) HandleGetTasks(c *gin.Context) {
	userID, _ := getStringFromContext(c, userIDCtxKey)

	var query listTasksQuery
	err := c.ShouldBindQuery(&query)
	if err != nil {
		h.logger.Warn().
			Err(err).
			Msg("failed to bind query")
		abortWithDetail(c, http.StatusBadRequest, "offset and limit must be non-negative integers")
		return
	}

	tasks, err := h.tasks.GetTasksByUserID(c, userID, query.Offset, query.Limit)
	if err != nil {
		h.logger.Error().
			Err(err).
			Str("user_id", userID).
			Msg("failed to get tasks")
		abortInternal(c)
		return
	}

	response := listTasksResponse{
		Tasks: make([]taskResponse, len(tasks)),
		Total: len(tasks),
	}
	for i, task := range tasks {
		response.Tasks[i] = newTaskResponse(task)
	}

	c.JSON(http.StatusOK, response)
}

func (h *handlerImpl) HandleGetTask(c *gin.Context) {
	userID, _ := getStringFromContext(c, userIDCtxKey)

	taskID, ok := taskIDFromPath(c)
	if !ok {
		return
	}

	task, err := h.tasks.GetTaskByID(c, taskID, userID)
	if err != nil {
		h.abortTaskError(c, err, taskID, userID)
		return
	}

	c.JSON(http.StatusOK, newTaskResponse(task))
}

type updateTaskRequest struct {
	Title       *string `json:"title,omitempty" binding:"omitempty,max=255"`
	Description *string `json:"description,omitempty" binding:"omitempty,max=1000"`
	Completed   *bool   `json:"completed,omitempty"`
}

func (h *handlerImpl) HandleUpdateTask(c *gin.Context) {
	userID, _ := getStringFromContext(c, userIDCtxKey)

	taskID, ok := taskIDFromPath(c)
	if !ok {
		return
	}

	var req updateTaskRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Warn().
			Err(err).
			Msg("failed to bind json")
		abortWithDetail(c, http.StatusBadRequest, "title must be 1-255 characters, description at most 1000")
		return
	}

	task, err := h.tasks.UpdateTask(c, services.UpdateTaskParams{
		ID:     taskID,
		UserID: userID,
		Patch: services.TaskPatch{
			Title:       req.Title,
			Description: req.Description,
			Completed:   req.Completed,
		},
	})
	if err != nil {
		h.abortTaskError(c, err, taskID, userID)
		return
	}

	c.JSON(http.StatusOK, newTaskResponse(task))
}

func (h *handlerImpl) HandleDeleteTask(c *gin.Context) {
	userID, _ := getStringFromContext(c, userIDCtxKey)

	taskID, ok := taskIDFromPath(c)
	if !ok {
		return
	}

	err := h.tasks.DeleteTask(c, taskID, userID)
	if err != nil {
		h.abortTaskError(c, err, taskID, userID)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *handlerImpl) HandleToggleTask(c *gin.Context) {
	userID, _ := getStringFromContext(c, userIDCtxKey)

	taskID, ok := taskIDFromPath(c)
	if !ok {
		return
	}

	task, err := h.tasks.ToggleTaskCompletion(c, taskID, userID)
	if err != nil {
		h.abortTaskError(c, err, taskID, userID)
		return
	}

	c.JSON(http.StatusOK, newTaskResponse(task))
}

func taskIDFromPath(c *gin.Context) (int64, bool) {
	taskID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || taskID < 1 {
		abortWithDetail(c, http.StatusBadRequest, "task id must be a positive integer")
		return 0, false
	}
	return taskID, true
}

func (h *handlerImpl) abortTaskError(c *gin.Context, err error, taskID int64, userID string) {
	switch {
	case errors.Is(err, services.ErrTaskNotFound):
		abortWithDetail(c, http.StatusNotFound,
			"Task with id "+strconv.FormatInt(taskID, 10)+" not found")
	case errors.Is(err, services.ErrInvalidTaskTitle),
		errors.Is(err, services.ErrInvalidTaskDescription):
		abortWithDetail(c, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error().
			Err(err).
			Int64("task_id", taskID).
			Str("user_id", userID).
			Msg("task operation failed")
		abortInternal(c)
	}
}
