package agent

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"

	"github.com/dkurilenko/go-todo-agent/internal/models"
	"github.com/dkurilenko/go-todo-agent/internal/services"
)

type fakeTaskService struct {
	created   []services.CreateTaskParams
	updated   []services.UpdateTaskParams
	deleted   []int64
	toggled   []int64
	listTasks []*models.Task

	createErr error
	updateErr error
	deleteErr error
	toggleErr error
	listErr   error
}

func (f *fakeTaskService) CreateTask(_ context.Context, params services.CreateTaskParams) (*models.Task, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = append(f.created, params)
	now := time.Now()
	return &models.Task{
		ID:          1,
		UserID:      params.UserID,
		Title:       params.Title,
		Description: params.Description,
		Completed:   params.Completed,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

func (f *fakeTaskService) GetTasksByUserID(_ context.Context, userID string, _, _ uint32) ([]*models.Task, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.listTasks, nil
}

func (f *fakeTaskService) GetTaskByID(_ context.Context, taskID int64, userID string) (*models.Task, error) {
	return nil, services.ErrTaskNotFound
}

func (f *fakeTaskService) UpdateTask(_ context.Context, params services.UpdateTaskParams) (*models.Task, error) {
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	f.updated = append(f.updated, params)
	return &models.Task{ID: params.ID, UserID: params.UserID, Title: "updated"}, nil
}

func (f *fakeTaskService) DeleteTask(_ context.Context, taskID int64, _ string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, taskID)
	return nil
}

func (f *fakeTaskService) ToggleTaskCompletion(_ context.Context, taskID int64, userID string) (*models.Task, error) {
	if f.toggleErr != nil {
		return nil, f.toggleErr
	}
	f.toggled = append(f.toggled, taskID)
	return &models.Task{ID: taskID, UserID: userID, Completed: true}, nil
}

func newTestBridge(tasks *fakeTaskService) *Bridge {
	return NewBridge(zerolog.Nop(), tasks)
}

func assertErrorEnvelope(t *testing.T, out, wantMessage string) {
	t.Helper()
	if status := gjson.Get(out, "status").String(); status != "error" {
		t.Fatalf("expected error status, got %q in %s", status, out)
	}
	if message := gjson.Get(out, "message").String(); message != wantMessage {
		t.Fatalf("expected message %q, got %q", wantMessage, message)
	}
}

func TestBridgeRequiresUserID(t *testing.T) {
	bridge := newTestBridge(&fakeTaskService{})

	for _, tool := range []string{
		toolAddTask, toolListTasks, toolCompleteTask, toolUpdateTask, toolDeleteTask,
	} {
		out := bridge.Invoke(context.Background(), tool, `{"user_id":"  "}`)
		assertErrorEnvelope(t, out, "user_id is required")
	}
}

func TestBridgeUnknownTool(t *testing.T) {
	bridge := newTestBridge(&fakeTaskService{})

	out := bridge.Invoke(context.Background(), "drop_database", `{}`)
	assertErrorEnvelope(t, out, "unknown tool: drop_database")
}

func TestAddTaskValidatesTitle(t *testing.T) {
	bridge := newTestBridge(&fakeTaskService{})

	out := bridge.Invoke(context.Background(), toolAddTask, `{"user_id":"alice"}`)
	assertErrorEnvelope(t, out, "Title is required")

	longTitle := strings.Repeat("a", 256)
	out = bridge.Invoke(context.Background(), toolAddTask,
		`{"user_id":"alice","title":"`+longTitle+`"}`)
	assertErrorEnvelope(t, out, "Title must be 255 characters or fewer")
}

func TestAddTaskSuccess(t *testing.T) {
	tasks := &fakeTaskService{}
	bridge := newTestBridge(tasks)

	out := bridge.Invoke(context.Background(), toolAddTask,
		`{"user_id":"alice","title":"  Buy milk  ","description":"2 liters"}`)

	if status := gjson.Get(out, "status").String(); status != "success" {
		t.Fatalf("expected success, got %s", out)
	}
	if title := gjson.Get(out, "task.title").String(); title != "Buy milk" {
		t.Fatalf("expected trimmed title in payload, got %q", title)
	}
	if len(tasks.created) != 1 {
		t.Fatalf("expected one create call, got %d", len(tasks.created))
	}
	if tasks.created[0].UserID != "alice" {
		t.Fatalf("expected user id alice, got %q", tasks.created[0].UserID)
	}
	if tasks.created[0].Completed {
		t.Fatal("new task must not default to completed")
	}
}

func TestListTasksEnvelope(t *testing.T) {
	now := time.Now()
	tasks := &fakeTaskService{listTasks: []*models.Task{
		{ID: 1, UserID: "alice", Title: "one", CreatedAt: now, UpdatedAt: now},
		{ID: 2, UserID: "alice", Title: "two", Completed: true, CreatedAt: now, UpdatedAt: now},
	}}
	bridge := newTestBridge(tasks)

	out := bridge.Invoke(context.Background(), toolListTasks, `{"user_id":"alice"}`)

	if count := gjson.Get(out, "count").Int(); count != 2 {
		t.Fatalf("expected count 2, got %d in %s", count, out)
	}
	if got := gjson.Get(out, "tasks.#").Int(); got != 2 {
		t.Fatalf("expected 2 tasks, got %d", got)
	}
	if title := gjson.Get(out, "tasks.1.title").String(); title != "two" {
		t.Fatalf("expected second task title, got %q", title)
	}
}

func TestListTasksEmpty(t *testing.T) {
	bridge := newTestBridge(&fakeTaskService{})

	out := bridge.Invoke(context.Background(), toolListTasks, `{"user_id":"alice"}`)

	if !gjson.Get(out, "tasks").IsArray() {
		t.Fatalf("expected tasks array, got %s", out)
	}
	if count := gjson.Get(out, "count").Int(); count != 0 {
		t.Fatalf("expected count 0, got %d", count)
	}
}

func TestCompleteTaskValidatesID(t *testing.T) {
	bridge := newTestBridge(&fakeTaskService{})

	out := bridge.Invoke(context.Background(), toolCompleteTask,
		`{"user_id":"alice","task_id":0}`)
	assertErrorEnvelope(t, out, "task_id must be a positive integer")
}

func TestCompleteTaskNotFound(t *testing.T) {
	bridge := newTestBridge(&fakeTaskService{toggleErr: services.ErrTaskNotFound})

	out := bridge.Invoke(context.Background(), toolCompleteTask,
		`{"user_id":"alice","task_id":7}`)
	assertErrorEnvelope(t, out, "Task with ID 7 not found for this user")
}

func TestUpdateTaskRequiresAField(t *testing.T) {
	bridge := newTestBridge(&fakeTaskService{})

	out := bridge.Invoke(context.Background(), toolUpdateTask,
		`{"user_id":"alice","task_id":3}`)
	assertErrorEnvelope(t, out, "At least one field (title or description) must be provided")
}

func TestUpdateTaskBuildsPatch(t *testing.T) {
	tasks := &fakeTaskService{}
	bridge := newTestBridge(tasks)

	out := bridge.Invoke(context.Background(), toolUpdateTask,
		`{"user_id":"alice","task_id":3,"title":"Renamed"}`)

	if status := gjson.Get(out, "status").String(); status != "success" {
		t.Fatalf("expected success, got %s", out)
	}
	if len(tasks.updated) != 1 {
		t.Fatalf("expected one update call, got %d", len(tasks.updated))
	}
	patch := tasks.updated[0].Patch
	if patch.Title == nil || *patch.Title != "Renamed" {
		t.Fatalf("expected title patch, got %+v", patch)
	}
	if patch.Description != nil {
		t.Fatal("description must stay unset when not supplied")
	}
}

func TestDeleteTask(t *testing.T) {
	tasks := &fakeTaskService{}
	bridge := newTestBridge(tasks)

	out := bridge.Invoke(context.Background(), toolDeleteTask,
		`{"user_id":"alice","task_id":5}`)

	if status := gjson.Get(out, "status").String(); status != "success" {
		t.Fatalf("expected success, got %s", out)
	}
	if message := gjson.Get(out, "message").String(); message != "Task 5 deleted successfully" {
		t.Fatalf("unexpected message %q", message)
	}

	tasks.deleteErr = services.ErrTaskNotFound
	out = bridge.Invoke(context.Background(), toolDeleteTask,
		`{"user_id":"alice","task_id":5}`)
	assertErrorEnvelope(t, out, "Task with ID 5 not found for this user")
}

func TestBridgeHidesInternalErrors(t *testing.T) {
	bridge := newTestBridge(&fakeTaskService{listErr: context.DeadlineExceeded})

	out := bridge.Invoke(context.Background(), toolListTasks, `{"user_id":"alice"}`)
	assertErrorEnvelope(t, out, "internal error, please try again")
}
