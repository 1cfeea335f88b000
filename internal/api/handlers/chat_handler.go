package handlers

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/TWRT/taskflow/internal/logging"
	"github.com/TWRT/taskflow/internal/models"
	"github.com/TWRT/taskflow/internal/repository"
	"github.com/TWRT/taskflow/internal/service"
)

type chatTurnBody struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatRequestBody struct {
	Question string         `json:"question"`
	History  []chatTurnBody `json:"history"`
	// Tasks is the client's current task list. When omitted the owner's
	// stored tasks are used.
	Tasks *[]models.Task `json:"tasks"`
}

// sessionSaveTimeout bounds the history write that follows a turn. It runs
// after the chat deadline may already have passed.
const sessionSaveTimeout = 5 * time.Second

type SessionMessageRequestBody struct {
	Question string `json:"question"`
}

type ChatHandler struct {
	chatbotService *service.ChatbotService
	taskService    *service.TaskService
	conversations  *repository.ConversationRepository
	timeout        time.Duration
	logger         *log.Logger
}

func NewChatHandler(
	chatbotService *service.ChatbotService,
	taskService *service.TaskService,
	conversations *repository.ConversationRepository,
	timeout time.Duration,
	logger *log.Logger,
) *ChatHandler {
	if logger == nil {
		logger = log.Default()
	}
	return &ChatHandler{
		chatbotService: chatbotService,
		taskService:    taskService,
		conversations:  conversations,
		timeout:        timeout,
		logger:         logger,
	}
}

func (h *ChatHandler) requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	if h.timeout <= 0 {
		return context.WithCancel(r.Context())
	}
	return context.WithTimeout(r.Context(), h.timeout)
}

// Ask runs one stateless turn: the client owns history and task list.
func (h *ChatHandler) Ask(w http.ResponseWriter, r *http.Request) {
	var reqBody ChatRequestBody
	if !decodeBody(w, r, &reqBody) {
		return
	}

	history, err := turnsFromBody(reqBody.History)
	if err != nil {
		writeError(w, "read the history", err)
		return
	}

	ctx, cancel := h.requestContext(r)
	defer cancel()

	owner := OwnerID(r)
	var tasks []models.Task
	if reqBody.Tasks != nil {
		tasks = *reqBody.Tasks
	} else {
		tasks, err = h.taskService.ListTasks(ctx, owner, service.ListOptions{})
		if err != nil {
			writeError(w, "load tasks", err)
			return
		}
	}

	out, err := h.chatbotService.Ask(ctx, owner, service.AskInput{
		Question: reqBody.Question,
		History:  history,
		Tasks:    tasks,
	})
	if err != nil {
		writeError(w, "answer", err)
		return
	}
	WriteJSON(w, http.StatusOK, out)
}

// PostSessionMessage runs one turn of a server-side session. History comes
// from the conversation store and the exchange is appended to it. Once Ask
// has answered, the reply is sent even if the history cannot be saved: the
// turn may already have changed the task list.
func (h *ChatHandler) PostSessionMessage(w http.ResponseWriter, r *http.Request) {
	var reqBody SessionMessageRequestBody
	if !decodeBody(w, r, &reqBody) {
		return
	}

	ctx, cancel := h.requestContext(r)
	defer cancel()

	owner := OwnerID(r)
	sessionID := r.PathValue("id")

	history, err := h.conversations.History(ctx, owner, sessionID)
	if err != nil {
		writeError(w, "load the session", err)
		return
	}
	tasks, err := h.taskService.ListTasks(ctx, owner, service.ListOptions{})
	if err != nil {
		writeError(w, "load tasks", err)
		return
	}

	out, err := h.chatbotService.Ask(ctx, owner, service.AskInput{
		Question: reqBody.Question,
		History:  history,
		Tasks:    tasks,
	})
	if err != nil {
		writeError(w, "answer", err)
		return
	}

	saveCtx, cancelSave := context.WithTimeout(context.WithoutCancel(ctx), sessionSaveTimeout)
	defer cancelSave()
	err = h.conversations.Append(saveCtx, owner, sessionID,
		models.Turn{Role: models.RoleUser, Content: reqBody.Question},
		models.Turn{Role: models.RoleAssistant, Content: out.Answer},
	)
	if err != nil {
		logging.Error(h.logger, "session_save_failed", map[string]any{
			"owner_id":   owner,
			"session_id": sessionID,
			"error":      err,
		})
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"sessionId": sessionID,
		"answer":    out.Answer,
		"tasks":     out.Tasks,
	})
}

func (h *ChatHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	history, err := h.conversations.History(r.Context(), OwnerID(r), sessionID)
	if err != nil {
		writeError(w, "load the session", err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"sessionId": sessionID,
		"history":   history,
	})
}

func turnsFromBody(body []chatTurnBody) ([]models.Turn, error) {
	turns := make([]models.Turn, 0, len(body))
	for i, b := range body {
		role, ok := models.ParseRole(b.Role)
		if !ok {
			return nil, fmt.Errorf("%w: turn %d has role %q", service.ErrInvalidTurn, i, b.Role)
		}
		turns = append(turns, models.Turn{Role: role, Content: b.Content})
	}
	return turns, nil
}
