package handlers

import (
	"net/http"

	"github.com/TWRT/taskflow/internal/service"
)

type conceptRequestBody struct {
	Concept string `json:"concept"`
}

type emailRequestBody struct {
	EmailBody string `json:"emailBody"`
}

// AssistHandler serves the task suggestion flows. Suggestions are not
// saved; the client posts them to /tasks when the user accepts.
type AssistHandler struct {
	assistService *service.AssistService
}

func NewAssistHandler(assistService *service.AssistService) *AssistHandler {
	return &AssistHandler{
		assistService: assistService,
	}
}

func (h *AssistHandler) ConceptToTask(w http.ResponseWriter, r *http.Request) {
	var reqBody conceptRequestBody
	if !decodeBody(w, r, &reqBody) {
		return
	}

	out, err := h.assistService.ConceptToTask(r.Context(), reqBody.Concept)
	if err != nil {
		writeError(w, "turn the concept into a task", err)
		return
	}
	WriteJSON(w, http.StatusOK, out)
}

func (h *AssistHandler) EmailToTask(w http.ResponseWriter, r *http.Request) {
	var reqBody emailRequestBody
	if !decodeBody(w, r, &reqBody) {
		return
	}

	out, err := h.assistService.EmailToTask(r.Context(), reqBody.EmailBody)
	if err != nil {
		writeError(w, "turn the email into a task", err)
		return
	}
	WriteJSON(w, http.StatusOK, out)
}
