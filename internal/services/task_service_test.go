package services

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dkurilenko/go-todo-agent/internal/models"
)

func TestValidateTaskTitle(t *testing.T) {
	cases := []struct {
		name  string
		title string
		want  error
	}{
		{"valid", "Buy milk", nil},
		{"empty", "", ErrInvalidTaskTitle},
		{"whitespace only", "   ", ErrInvalidTaskTitle},
		{"max length", strings.Repeat("a", 255), nil},
		{"too long", strings.Repeat("a", 256), ErrInvalidTaskTitle},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := validateTaskTitle(tc.title); !errors.Is(err, tc.want) {
				t.Fatalf("validateTaskTitle(%q) = %v, want %v", tc.title, err, tc.want)
			}
		})
	}
}

func TestValidateTaskDescription(t *testing.T) {
	if err := validateTaskDescription(strings.Repeat("a", 1000)); err != nil {
		t.Fatalf("expected 1000-char description to pass, got: %v", err)
	}
	if err := validateTaskDescription(strings.Repeat("a", 1001)); !errors.Is(err, ErrInvalidTaskDescription) {
		t.Fatalf("expected ErrInvalidTaskDescription, got: %v", err)
	}
}

func TestApplyTaskPatchMergesOnlySuppliedFields(t *testing.T) {
	task := &models.Task{
		Title:       "Original",
		Description: "original description",
		Completed:   false,
		CreatedAt:   time.Now(),
	}

	title := "  Renamed  "
	changed := applyTaskPatch(task, TaskPatch{Title: &title})
	if !changed {
		t.Fatal("expected patch to report a change")
	}
	if task.Title != "Renamed" {
		t.Fatalf("expected trimmed title, got %q", task.Title)
	}
	if task.Description != "original description" {
		t.Fatalf("unsupplied description changed to %q", task.Description)
	}
	if task.Completed {
		t.Fatal("unsupplied completed flag changed")
	}
}

func TestApplyTaskPatchReportsEmptyPatch(t *testing.T) {
	task := &models.Task{Title: "Original"}
	if applyTaskPatch(task, TaskPatch{}) {
		t.Fatal("empty patch reported a change")
	}
	if task.Title != "Original" {
		t.Fatalf("empty patch mutated task: %q", task.Title)
	}
}

func TestApplyTaskPatchTogglesCompleted(t *testing.T) {
	task := &models.Task{Completed: false}

	completed := true
	if !applyTaskPatch(task, TaskPatch{Completed: &completed}) {
		t.Fatal("expected patch to report a change")
	}
	if !task.Completed {
		t.Fatal("completed flag not applied")
	}
}
