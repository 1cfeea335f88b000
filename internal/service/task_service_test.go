package service

import (
	"context"
	"testing"

	"github.com/TWRT/taskflow/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskService_CreateValidates(t *testing.T) {
	store := &fakeStore{}
	svc := NewTaskService(store)

	_, err := svc.CreateTask(context.Background(), "user-1", models.NewTask{Title: " "})
	assert.ErrorIs(t, err, models.ErrInvalidTask)

	_, err = svc.CreateTask(context.Background(), "user-1", models.NewTask{Title: "x", DueDate: "next friday"})
	assert.ErrorIs(t, err, models.ErrInvalidTask)
	assert.Equal(t, 0, store.creates)

	task, err := svc.CreateTask(context.Background(), "user-1", models.NewTask{Title: " Plan trip ", DueDate: "2026-05-01"})
	require.NoError(t, err)
	assert.Equal(t, "Plan trip", task.Title)
	assert.Equal(t, models.PriorityMedium, task.Priority)
}

func TestTaskService_ListOptions(t *testing.T) {
	svc := NewTaskService(&fakeStore{})

	_, err := svc.ListTasks(context.Background(), "user-1", ListOptions{Status: "blocked"})
	assert.ErrorIs(t, err, models.ErrInvalidTask)

	_, err = svc.ListTasks(context.Background(), "user-1", ListOptions{Order: "sideways"})
	assert.ErrorIs(t, err, models.ErrInvalidTask)

	tasks, err := svc.ListTasks(context.Background(), "user-1", ListOptions{Status: "todo", Order: "DESC"})
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestTaskService_UpdateValidates(t *testing.T) {
	svc := NewTaskService(&fakeStore{})
	bad := models.Status("archived")

	_, err := svc.UpdateTask(context.Background(), "user-1", "a", models.TaskPatch{Status: &bad})
	assert.ErrorIs(t, err, models.ErrInvalidTask)
}
