package api

import (
	"database/sql"
	"log"
	"net/http"
	"time"

	"github.com/TWRT/taskflow/internal/api/handlers"
	"github.com/TWRT/taskflow/internal/client"
	"github.com/TWRT/taskflow/internal/prompt"
	"github.com/TWRT/taskflow/internal/repository"
	"github.com/TWRT/taskflow/internal/service"
)

type RouterOptions struct {
	AckMode     service.AckMode
	ChatTimeout time.Duration
	Prompts     *prompt.Catalogue
	Logger      *log.Logger
}

func SetupRouter(db *sql.DB, llm client.LanguageModel, opts RouterOptions) http.Handler {
	mux := http.NewServeMux()

	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	taskRepo := repository.NewTaskRepository(db)
	conversationRepo := repository.NewConversationRepository(db)

	taskService := service.NewTaskService(taskRepo)
	toolRegistry := service.NewToolRegistry(taskRepo, logger)
	chatbotService := service.NewChatbotService(llm, toolRegistry, opts.Prompts, opts.AckMode, logger)
	assistService := service.NewAssistService(llm, opts.Prompts)

	taskHandler := handlers.NewTaskHandler(taskService)
	chatHandler := handlers.NewChatHandler(chatbotService, taskService, conversationRepo, opts.ChatTimeout, logger)
	assistHandler := handlers.NewAssistHandler(assistService)

	owned := func(h http.HandlerFunc) http.Handler {
		return WithOwner(h)
	}

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			handlers.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "unavailable",
				"error":  err.Error(),
			})
			return
		}
		handlers.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	mux.Handle("GET /tasks", owned(taskHandler.ListTasks))
	mux.Handle("POST /tasks", owned(taskHandler.CreateTask))
	mux.Handle("GET /tasks/{id}", owned(taskHandler.GetTask))
	mux.Handle("PATCH /tasks/{id}", owned(taskHandler.UpdateTask))
	mux.Handle("DELETE /tasks/{id}", owned(taskHandler.DeleteTask))

	mux.Handle("POST /chat", owned(chatHandler.Ask))
	mux.Handle("POST /chat/sessions/{id}/messages", owned(chatHandler.PostSessionMessage))
	mux.Handle("GET /chat/sessions/{id}", owned(chatHandler.GetSession))

	mux.Handle("POST /assist/concept", owned(assistHandler.ConceptToTask))
	mux.Handle("POST /assist/email", owned(assistHandler.EmailToTask))

	return Chain(mux,
		WithRequestID,
		WithRecover(logger),
		WithAccessLog(logger),
	)
}
