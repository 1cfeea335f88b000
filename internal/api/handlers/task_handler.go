package handlers

import (
	"net/http"

	"github.com/TWRT/taskflow/internal/models"
	"github.com/TWRT/taskflow/internal/service"
)

type TaskHandler struct {
	taskService *service.TaskService
}

func NewTaskHandler(taskService *service.TaskService) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
	}
}

func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	tasks, err := h.taskService.ListTasks(r.Context(), OwnerID(r), service.ListOptions{
		Status: q.Get("status"),
		Sort:   q.Get("sort"),
		Order:  q.Get("order"),
	})
	if err != nil {
		writeError(w, "list tasks", err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"tasks": tasks,
	})
}

func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	var reqBody models.NewTask
	if !decodeBody(w, r, &reqBody) {
		return
	}

	task, err := h.taskService.CreateTask(r.Context(), OwnerID(r), reqBody)
	if err != nil {
		writeError(w, "create task", err)
		return
	}
	WriteJSON(w, http.StatusCreated, map[string]any{
		"task": task,
	})
}

func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	task, err := h.taskService.GetTask(r.Context(), OwnerID(r), r.PathValue("id"))
	if err != nil {
		writeError(w, "get task", err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"task": task,
	})
}

// UpdateTask applies a partial update. Moving a card between kanban
// columns is a PATCH of its status.
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	var patch models.TaskPatch
	if !decodeBody(w, r, &patch) {
		return
	}

	task, err := h.taskService.UpdateTask(r.Context(), OwnerID(r), r.PathValue("id"), patch)
	if err != nil {
		writeError(w, "update task", err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"task": task,
	})
}

func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	if err := h.taskService.DeleteTask(r.Context(), OwnerID(r), r.PathValue("id")); err != nil {
		writeError(w, "delete task", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
