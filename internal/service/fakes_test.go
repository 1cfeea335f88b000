package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/TWRT/taskflow/internal/client"
	"github.com/TWRT/taskflow/internal/models"
	"github.com/TWRT/taskflow/internal/repository"
)

var errDiskFull = errors.New("disk full")

// fakeStore is an in-memory client.TaskStore with switchable write failures.
type fakeStore struct {
	mu       sync.Mutex
	tasks    []models.Task
	nextID   int
	failWith error
	creates  int
	deletes  []string
}

func (s *fakeStore) Create(_ context.Context, ownerID string, n models.NewTask) (models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creates++
	if s.failWith != nil {
		return models.Task{}, fmt.Errorf("create task: %w: %w", repository.ErrStoreWrite, s.failWith)
	}
	n.Normalize()
	s.nextID++
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	t := models.Task{
		ID:          fmt.Sprintf("task-%d", s.nextID),
		OwnerID:     ownerID,
		Title:       n.Title,
		Description: n.Description,
		Priority:    n.Priority,
		Status:      models.StatusTodo,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.tasks = append(s.tasks, t)
	return t, nil
}

func (s *fakeStore) Get(_ context.Context, ownerID, id string) (models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tasks {
		if t.ID == id && t.OwnerID == ownerID {
			return t, nil
		}
	}
	return models.Task{}, repository.ErrTaskNotFound
}

func (s *fakeStore) List(_ context.Context, ownerID string, _ models.TaskFilter) ([]models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Task{}
	for _, t := range s.tasks {
		if t.OwnerID == ownerID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *fakeStore) FindByTitle(_ context.Context, ownerID, title string) (models.Task, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tasks {
		if t.OwnerID == ownerID && strings.EqualFold(t.Title, title) {
			return t, true, nil
		}
	}
	return models.Task{}, false, nil
}

func (s *fakeStore) Update(_ context.Context, ownerID, id string, p models.TaskPatch) (models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return models.Task{}, fmt.Errorf("update task: %w: %w", repository.ErrStoreWrite, s.failWith)
	}
	for i, t := range s.tasks {
		if t.ID == id && t.OwnerID == ownerID {
			p.Apply(&s.tasks[i])
			return s.tasks[i], nil
		}
	}
	return models.Task{}, repository.ErrTaskNotFound
}

func (s *fakeStore) Delete(_ context.Context, ownerID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deletes = append(s.deletes, id)
	if s.failWith != nil {
		return fmt.Errorf("delete task: %w: %w", repository.ErrStoreWrite, s.failWith)
	}
	for i, t := range s.tasks {
		if t.ID == id && t.OwnerID == ownerID {
			s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
			return nil
		}
	}
	return repository.ErrTaskNotFound
}

// scriptedLLM replays canned resolutions and records every request.
type scriptedLLM struct {
	mu        sync.Mutex
	responses []scripted
	requests  []client.GenerateRequest
}

type scripted struct {
	res client.Resolution
	err error
}

func (l *scriptedLLM) then(res client.Resolution, err error) *scriptedLLM {
	l.responses = append(l.responses, scripted{res: res, err: err})
	return l
}

func (l *scriptedLLM) Generate(_ context.Context, req client.GenerateRequest) (client.Resolution, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.requests = append(l.requests, req)
	if len(l.responses) == 0 {
		return nil, fmt.Errorf("%w: script exhausted", client.ErrGatewayUnavailable)
	}
	next := l.responses[0]
	l.responses = l.responses[1:]
	return next.res, next.err
}

// echoLLM answers deterministically from the prompt and never calls tools.
type echoLLM struct{}

func (echoLLM) Generate(_ context.Context, req client.GenerateRequest) (client.Resolution, error) {
	return client.Answer{Text: "You asked: " + req.Prompt}, nil
}

func sampleTask(id, title string) models.Task {
	created := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	return models.Task{
		ID:          id,
		OwnerID:     "user-1",
		Title:       title,
		Description: "details for " + title,
		DueDate:     "2026-03-10",
		Priority:    models.PriorityHigh,
		Status:      models.StatusInProgress,
		CreatedAt:   created,
		UpdatedAt:   created,
	}
}
