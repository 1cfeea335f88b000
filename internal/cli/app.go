package cli

import (
	"database/sql"
	"fmt"
	"log"
	"os"

	"github.com/TWRT/taskflow/internal/client/openai"
	"github.com/TWRT/taskflow/internal/config"
	"github.com/TWRT/taskflow/internal/logging"
	"github.com/TWRT/taskflow/internal/repository"
	"github.com/TWRT/taskflow/internal/service"
)

// app holds what every command needs once configuration is loaded.
type app struct {
	cfg     *config.Config
	db      *sql.DB
	logger  *log.Logger
	ackMode service.AckMode
}

// newApp loads configuration and opens the database. Logs go to stderr so
// stdout stays free for answers and the MCP stdio transport.
func newApp() (*app, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}
	ackMode, err := service.ParseAckMode(cfg.ChatAckMode)
	if err != nil {
		return nil, fmt.Errorf("config: chat.ack_mode: %w", err)
	}

	db, err := repository.InitDB(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("initializing database: %w", err)
	}

	return &app{
		cfg:     cfg,
		db:      db,
		logger:  logging.New(os.Stderr),
		ackMode: ackMode,
	}, nil
}

func (a *app) languageModel() (*openai.OpenAIClient, error) {
	if err := a.cfg.RequireLLM(); err != nil {
		return nil, err
	}
	return openai.NewOpenAIClient(openai.Config{
		APIKey:  a.cfg.LLMAPIKey,
		BaseURL: a.cfg.LLMBaseURL,
		Model:   a.cfg.LLMModel,
		Timeout: a.cfg.LLMTimeout,
	}, a.logger), nil
}

func (a *app) Close() error {
	return a.db.Close()
}
