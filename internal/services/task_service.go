package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/dkurilenko/go-todo-agent/internal/models"
)

const defaultTaskPageLimit = 100

type taskServiceImpl struct {
	logger zerolog.Logger
	pgPool *pgxpool.Pool
}

func NewTaskService(
	logger zerolog.Logger,
	pgPool *pgxpool.Pool,
) TaskService {
	return &taskServiceImpl{
		logger: logger,
		pgPool: pgPool,
	}
}

func validateTaskTitle(title string) error {
	if strings.TrimSpace(title) == "" || len(title) > 255 {
		return ErrInvalidTaskTitle
	}
	return nil
}

func validateTaskDescription(description string) error {
	if len(description) > 1000 {
		return ErrInvalidTaskDescription
	}
	return nil
}

// applyTaskPatch merges only the fields set in the patch into the task
// and reports whether anything was supplied.
func applyTaskPatch(task *models.Task, patch TaskPatch) bool {
	changed := false
	if patch.Title != nil {
		task.Title = strings.TrimSpace(*patch.Title)
		changed = true
	}
	if patch.Description != nil {
		task.Description = *patch.Description
		changed = true
	}
	if patch.Completed != nil {
		task.Completed = *patch.Completed
		changed = true
	}
	return changed
}

func (s *taskServiceImpl) CreateTask(ctx context.Context, params CreateTaskParams) (*models.Task, error) {
	if err := validateTaskTitle(params.Title); err != nil {
		return nil, err
	}
	if err := validateTaskDescription(params.Description); err != nil {
		return nil, err
	}

	now := time.Now()
	task := &models.Task{
		UserID:      params.UserID,
		Title:       strings.TrimSpace(params.Title),
		Description: params.Description,
		Completed:   params.Completed,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	const insertTaskQuery = `
INSERT INTO tasks (user_id,
                   title,
                   description,
                   completed,
                   created_at,
                   updated_at)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id
`
	err := s.pgPool.QueryRow(
		ctx,
		insertTaskQuery,
		task.UserID,
		task.Title,
		task.Description,
		task.Completed,
		task.CreatedAt,
		task.UpdatedAt,
	).Scan(&task.ID)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("user_id", task.UserID).
			Msg("failed to insert task")
		return nil, err
	}

	s.logger.Info().
		Int64("task_id", task.ID).
		Str("user_id", task.UserID).
		Msg("created task")
	return task, nil
}

func (s *taskServiceImpl) GetTasksByUserID(ctx context.Context, userID string, offset, limit uint32) ([]*models.Task, error) {
	if limit == 0 {
		limit = defaultTaskPageLimit
	}

	const selectTasksByUserIDQuery = `
SELECT id,
       title,
       description,
       completed,
       created_at,
       updated_at
FROM tasks
WHERE user_id = $1
ORDER BY id
LIMIT $2 OFFSET $3
`
	rows, err := s.pgPool.Query(
		ctx,
		selectTasksByUserIDQuery,
		userID,
		limit,
		offset,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("user_id", userID).
			Msg("failed to select tasks by user id")
		return nil, err
	}
	defer rows.Close()

	tasks := make([]*models.Task, 0, limit)
	for rows.Next() {
		task := &models.Task{UserID: userID}
		err = rows.Scan(
			&task.ID,
			&task.Title,
			&task.Description,
			&task.Completed,
			&task.CreatedAt,
			&task.UpdatedAt,
		)
		if err != nil {
			s.logger.Error().
				Err(err).
				Msg("failed to scan task")
			return nil, err
		}
		tasks = append(tasks, task)
	}

	err = rows.Err()
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to iterate over rows")
		return nil, err
	}

	s.logger.Debug().
		Int("count", len(tasks)).
		Str("user_id", userID).
		Msg("selected tasks by user id")
	return tasks, nil
}

func (s *taskServiceImpl) GetTaskByID(ctx context.Context, taskID int64, userID string) (*models.Task, error) {
	task := &models.Task{
		ID:     taskID,
		UserID: userID,
	}

	const selectTaskByIDQuery = `
SELECT title,
       description,
       completed,
       created_at,
       updated_at
FROM tasks
WHERE id = $1 AND user_id = $2
`
	err := s.pgPool.QueryRow(
		ctx,
		selectTaskByIDQuery,
		task.ID,
		task.UserID,
	).Scan(
		&task.Title,
		&task.Description,
		&task.Completed,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.logger.Warn().
				Int64("task_id", taskID).
				Str("user_id", userID).
				Msg("task not found")
			return nil, ErrTaskNotFound
		}

		s.logger.Error().
			Err(err).
			Int64("task_id", taskID).
			Msg("failed to select task by id")
		return nil, err
	}

	return task, nil
}

func (s *taskServiceImpl) UpdateTask(ctx context.Context, params UpdateTaskParams) (*models.Task, error) {
	if params.Patch.Title != nil {
		if err := validateTaskTitle(*params.Patch.Title); err != nil {
			return nil, err
		}
	}
	if params.Patch.Description != nil {
		if err := validateTaskDescription(*params.Patch.Description); err != nil {
			return nil, err
		}
	}

	tx, err := s.pgPool.Begin(ctx)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to begin transaction")
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	task := &models.Task{
		ID:     params.ID,
		UserID: params.UserID,
	}

	const selectTaskForUpdateQuery = `
SELECT title,
       description,
       completed,
       created_at,
       updated_at
FROM tasks
WHERE id = $1 AND user_id = $2
FOR UPDATE
`
	err = tx.QueryRow(
		ctx,
		selectTaskForUpdateQuery,
		task.ID,
		task.UserID,
	).Scan(
		&task.Title,
		&task.Description,
		&task.Completed,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.logger.Warn().
				Int64("task_id", task.ID).
				Str("user_id", task.UserID).
				Msg("task not found")
			return nil, ErrTaskNotFound
		}

		s.logger.Error().
			Err(err).
			Int64("task_id", task.ID).
			Msg("failed to select task for update")
		return nil, err
	}

	if !applyTaskPatch(task, params.Patch) {
		s.logger.Debug().
			Int64("task_id", task.ID).
			Msg("no fields to update")
		return task, nil
	}
	task.UpdatedAt = time.Now()

	const updateTaskQuery = `
UPDATE tasks
SET title = $1,
    description = $2,
    completed = $3,
    updated_at = $4
WHERE id = $5 AND user_id = $6
`
	_, err = tx.Exec(
		ctx,
		updateTaskQuery,
		task.Title,
		task.Description,
		task.Completed,
		task.UpdatedAt,
		task.ID,
		task.UserID,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Int64("task_id", task.ID).
			Msg("failed to update task")
		return nil, err
	}

	err = tx.Commit(ctx)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to commit transaction")
		return nil, err
	}

	s.logger.Info().
		Int64("task_id", task.ID).
		Str("user_id", task.UserID).
		Msg("updated task")
	return task, nil
}

func (s *taskServiceImpl) DeleteTask(ctx context.Context, taskID int64, userID string) error {
	const deleteTaskQuery = `
DELETE FROM tasks
WHERE id = $1 AND user_id = $2
`
	tag, err := s.pgPool.Exec(
		ctx,
		deleteTaskQuery,
		taskID,
		userID,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Int64("task_id", taskID).
			Msg("failed to delete task")
		return err
	}
	if tag.RowsAffected() == 0 {
		s.logger.Warn().
			Int64("task_id", taskID).
			Str("user_id", userID).
			Msg("task not found")
		return ErrTaskNotFound
	}

	s.logger.Info().
		Int64("task_id", taskID).
		Str("user_id", userID).
		Msg("deleted task")
	return nil
}

func (s *taskServiceImpl) ToggleTaskCompletion(ctx context.Context, taskID int64, userID string) (*models.Task, error) {
	task := &models.Task{
		ID:        taskID,
		UserID:    userID,
		UpdatedAt: time.Now(),
	}

	const toggleTaskQuery = `
UPDATE tasks
SET completed = NOT completed,
    updated_at = $1
WHERE id = $2 AND user_id = $3
RETURNING title, description, completed, created_at
`
	err := s.pgPool.QueryRow(
		ctx,
		toggleTaskQuery,
		task.UpdatedAt,
		task.ID,
		task.UserID,
	).Scan(
		&task.Title,
		&task.Description,
		&task.Completed,
		&task.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.logger.Warn().
				Int64("task_id", taskID).
				Str("user_id", userID).
				Msg("task not found")
			return nil, ErrTaskNotFound
		}

		s.logger.Error().
			Err(err).
			Int64("task_id", taskID).
			Msg("failed to toggle task completion")
		return nil, err
	}

	s.logger.Info().
		Int64("task_id", taskID).
		Str("user_id", userID).
		Bool("completed", task.Completed).
		Msg("toggled task completion")
	return task, nil
}
