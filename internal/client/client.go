package client

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/TWRT/taskflow/internal/models"
)

// ErrGatewayUnavailable wraps every failure to obtain a response from the
// language model: transport errors, API errors and unusable responses.
var ErrGatewayUnavailable = errors.New("language model unavailable")

type TaskStore interface {
	Create(ctx context.Context, ownerID string, task models.NewTask) (models.Task, error)
	Get(ctx context.Context, ownerID, id string) (models.Task, error)
	List(ctx context.Context, ownerID string, filter models.TaskFilter) ([]models.Task, error)
	FindByTitle(ctx context.Context, ownerID, title string) (models.Task, bool, error)
	Update(ctx context.Context, ownerID, id string, patch models.TaskPatch) (models.Task, error)
	Delete(ctx context.Context, ownerID, id string) error
}

// ToolSpec declares a callable tool to the model. Parameters is a JSON
// Schema object.
type ToolSpec struct {
	Name        string
	Description string
	Parameters  map[string]any
}

type GenerateRequest struct {
	System  string
	History []models.Turn
	Prompt  string
	Tools   []ToolSpec
}

// Resolution is what the model decided to do with a turn: either an Answer
// or a ToolCall, never both.
type Resolution interface {
	resolution()
}

type Answer struct {
	Text string
}

type ToolCall struct {
	Name      string
	Arguments json.RawMessage
}

func (Answer) resolution()   {}
func (ToolCall) resolution() {}

type LanguageModel interface {
	Generate(ctx context.Context, req GenerateRequest) (Resolution, error)
}
