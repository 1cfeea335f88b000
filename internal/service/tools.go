package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/TWRT/taskflow/internal/client"
	"github.com/TWRT/taskflow/internal/logging"
	"github.com/TWRT/taskflow/internal/models"
	"github.com/TWRT/taskflow/internal/repository"
	"github.com/google/jsonschema-go/jsonschema"
)

const (
	AddTaskTool    = "addTask"
	DeleteTaskTool = "deleteTask"
)

var (
	ErrToolArgumentInvalid = errors.New("invalid tool arguments")
	ErrUnknownTool         = errors.New("unknown tool")
)

type toolHandler func(ctx context.Context, snap *Snapshot, args json.RawMessage) string

// Tool is a named mutating capability offered to the language model.
type Tool struct {
	Name        string
	Description string
	Schema      *jsonschema.Schema

	resolved *jsonschema.Resolved
	handler  toolHandler
}

// ToolRegistry binds the chatbot tools to a task store.
type ToolRegistry struct {
	store  client.TaskStore
	logger *log.Logger
	tools  []*Tool
	byName map[string]*Tool
}

type addTaskArgs struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Priority    models.Priority `json:"priority"`
}

type deleteTaskArgs struct {
	Title string `json:"title"`
}

func NewToolRegistry(store client.TaskStore, logger *log.Logger) *ToolRegistry {
	if logger == nil {
		logger = log.Default()
	}
	r := &ToolRegistry{
		store:  store,
		logger: logger,
		byName: map[string]*Tool{},
	}

	r.register(&Tool{
		Name:        AddTaskTool,
		Description: "Add a new task to the list.",
		Schema:      addTaskSchema(),
		handler:     r.addTask,
	})
	r.register(&Tool{
		Name:        DeleteTaskTool,
		Description: "Delete a task by its title.",
		Schema:      deleteTaskSchema(),
		handler:     r.deleteTask,
	})

	return r
}

func (r *ToolRegistry) register(t *Tool) {
	resolved, err := t.Schema.Resolve(nil)
	if err != nil {
		panic(fmt.Sprintf("tool %s: resolve schema: %v", t.Name, err))
	}
	t.resolved = resolved
	r.tools = append(r.tools, t)
	r.byName[t.Name] = t
}

func (r *ToolRegistry) Tools() []*Tool {
	return r.tools
}

// Specs describes the registered tools in the form the gateway sends to the
// model.
func (r *ToolRegistry) Specs() []client.ToolSpec {
	specs := make([]client.ToolSpec, 0, len(r.tools))
	for _, t := range r.tools {
		specs = append(specs, client.ToolSpec{
			Name:        t.Name,
			Description: t.Description,
			Parameters:  schemaMap(t.Schema),
		})
	}
	return specs
}

// Execute validates call against the tool's schema and runs its handler on
// snap. Handlers never fail: store errors come back as a status message.
// The returned error is ErrUnknownTool or ErrToolArgumentInvalid, in which
// case nothing was executed.
func (r *ToolRegistry) Execute(ctx context.Context, snap *Snapshot, call client.ToolCall) (string, error) {
	tool, ok := r.byName[call.Name]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownTool, call.Name)
	}

	args := call.Arguments
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}
	var instance any
	if err := json.Unmarshal(args, &instance); err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrToolArgumentInvalid, tool.Name, err)
	}
	if err := tool.resolved.Validate(instance); err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrToolArgumentInvalid, tool.Name, err)
	}

	return tool.handler(ctx, snap, args), nil
}

func (r *ToolRegistry) addTask(ctx context.Context, snap *Snapshot, raw json.RawMessage) string {
	var args addTaskArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return "Failed to add task."
	}
	if args.Priority == "" {
		args.Priority = models.PriorityMedium
	}

	task, err := r.store.Create(ctx, snap.OwnerID(), models.NewTask{
		Title:       args.Title,
		Description: args.Description,
		Priority:    args.Priority,
	})
	if err != nil {
		logging.Error(r.logger, "add_task_failed", map[string]any{
			"owner": snap.OwnerID(),
			"title": args.Title,
			"error": err,
		})
		return fmt.Sprintf("Failed to add task \"%s\".", args.Title)
	}

	snap.add(task)
	return fmt.Sprintf("Task \"%s\" added successfully.", args.Title)
}

func (r *ToolRegistry) deleteTask(ctx context.Context, snap *Snapshot, raw json.RawMessage) string {
	var args deleteTaskArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return "Failed to delete task."
	}

	i := snap.indexByTitle(args.Title)
	if i < 0 {
		return fmt.Sprintf("Task \"%s\" not found.", args.Title)
	}

	target := snap.tasks[i]
	err := r.store.Delete(ctx, snap.OwnerID(), target.ID)
	if err != nil && !errors.Is(err, repository.ErrTaskNotFound) {
		logging.Error(r.logger, "delete_task_failed", map[string]any{
			"owner":   snap.OwnerID(),
			"task_id": target.ID,
			"error":   err,
		})
		return fmt.Sprintf("Failed to delete task \"%s\".", args.Title)
	}
	if err != nil {
		// already gone from the store; the snapshot was stale
		logging.Warn(r.logger, "delete_task_stale", map[string]any{"owner": snap.OwnerID(), "task_id": target.ID})
	}

	snap.removeAt(i)
	return fmt.Sprintf("Task \"%s\" deleted successfully.", args.Title)
}

func addTaskSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"title": {
				Type:        "string",
				Description: "Title of the task.",
				MinLength:   intPtr(1),
				Pattern:     `\S`,
			},
			"description": {
				Type:        "string",
				Description: "Optional longer description of the task.",
			},
			"priority": {
				Type:        "string",
				Description: "Priority of the task. Defaults to medium.",
				Enum:        []any{string(models.PriorityLow), string(models.PriorityMedium), string(models.PriorityHigh)},
			},
		},
		Required: []string{"title"},
	}
}

func deleteTaskSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"title": {
				Type:        "string",
				Description: "Title of the task to delete.",
				MinLength:   intPtr(1),
				Pattern:     `\S`,
			},
		},
		Required: []string{"title"},
	}
}

// schemaMap converts a schema into the generic JSON object form used for
// function parameters.
func schemaMap(s *jsonschema.Schema) map[string]any {
	b, err := json.Marshal(s)
	if err != nil {
		panic(fmt.Sprintf("marshal schema: %v", err))
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		panic(fmt.Sprintf("unmarshal schema: %v", err))
	}
	return m
}

func intPtr(n int) *int {
	return &n
}
