package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/TWRT/taskflow/internal/client"
	"github.com/TWRT/taskflow/internal/models"
)

// TaskService is the owner-facing CRUD used by the list and kanban views.
type TaskService struct {
	store client.TaskStore
}

func NewTaskService(store client.TaskStore) *TaskService {
	return &TaskService{store: store}
}

// ListOptions carries the raw query parameters of the list view.
type ListOptions struct {
	Status string
	Sort   string
	Order  string
}

func (s *TaskService) ListTasks(ctx context.Context, ownerID string, opts ListOptions) ([]models.Task, error) {
	filter := models.TaskFilter{SortBy: opts.Sort}
	if opts.Status != "" {
		status := models.Status(opts.Status)
		if !status.Valid() {
			return nil, fmt.Errorf("%w: unknown status %q", models.ErrInvalidTask, opts.Status)
		}
		filter.Status = status
	}
	switch strings.ToLower(opts.Order) {
	case "", "asc":
	case "desc":
		filter.Desc = true
	default:
		return nil, fmt.Errorf("%w: unknown order %q", models.ErrInvalidTask, opts.Order)
	}
	return s.store.List(ctx, ownerID, filter)
}

func (s *TaskService) CreateTask(ctx context.Context, ownerID string, task models.NewTask) (models.Task, error) {
	task.Normalize()
	if err := task.Validate(); err != nil {
		return models.Task{}, err
	}
	return s.store.Create(ctx, ownerID, task)
}

func (s *TaskService) GetTask(ctx context.Context, ownerID, id string) (models.Task, error) {
	return s.store.Get(ctx, ownerID, id)
}

func (s *TaskService) UpdateTask(ctx context.Context, ownerID, id string, patch models.TaskPatch) (models.Task, error) {
	if err := patch.Validate(); err != nil {
		return models.Task{}, err
	}
	return s.store.Update(ctx, ownerID, id, patch)
}

func (s *TaskService) DeleteTask(ctx context.Context, ownerID, id string) error {
	return s.store.Delete(ctx, ownerID, id)
}
