// Package mcp exposes the chatbot's task tools to MCP clients, so an
// assistant can manage one owner's task list over stdio.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/TWRT/taskflow/internal/client"
	"github.com/TWRT/taskflow/internal/logging"
	"github.com/TWRT/taskflow/internal/models"
	"github.com/TWRT/taskflow/internal/service"
	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// Server serves add_task, delete_task and list_tasks for a single owner.
// Mutations run through the same ToolRegistry as the chatbot.
type Server struct {
	server  *gomcp.Server
	store   client.TaskStore
	tools   *service.ToolRegistry
	ownerID string
	logger  *log.Logger
}

func NewServer(store client.TaskStore, tools *service.ToolRegistry, ownerID, version string, logger *log.Logger) *Server {
	if version == "" {
		version = "dev"
	}
	if logger == nil {
		logger = log.Default()
	}

	s := &Server{
		store:   store,
		tools:   tools,
		ownerID: ownerID,
		logger:  logger,
	}
	s.server = gomcp.NewServer(
		&gomcp.Implementation{Name: "taskflow", Version: version},
		nil,
	)
	s.registerTools()
	return s
}

// Run blocks until the client disconnects or ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &gomcp.StdioTransport{})
}

func (s *Server) MCPServer() *gomcp.Server {
	return s.server
}

type addTaskInput struct {
	Title       string `json:"title" jsonschema:"the task title"`
	Description string `json:"description,omitempty" jsonschema:"optional details"`
	Priority    string `json:"priority,omitempty" jsonschema:"low, medium or high; defaults to medium"`
}

type deleteTaskInput struct {
	Title string `json:"title" jsonschema:"title of the task to delete, matched case-insensitively"`
}

type listTasksInput struct {
	Status string `json:"status,omitempty" jsonschema:"filter by status (todo, in-progress, done)"`
}

type taskOutput struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	DueDate     string `json:"due_date,omitempty"`
	Priority    string `json:"priority"`
	Status      string `json:"status"`
	Created     string `json:"created"`
}

type mutationOutput struct {
	Message string `json:"message"`
	Count   int    `json:"count"`
}

type listTasksOutput struct {
	Tasks []taskOutput `json:"tasks"`
	Count int          `json:"count"`
}

func (s *Server) registerTools() {
	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "add_task",
		Description: "Add a task with status todo. Returns the outcome and the new task count.",
	}, s.handleAddTask)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "delete_task",
		Description: "Delete the first task whose title matches, ignoring case.",
	}, s.handleDeleteTask)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "list_tasks",
		Description: "List tasks in creation order with an optional status filter.",
	}, s.handleListTasks)
}

func (s *Server) handleAddTask(ctx context.Context, _ *gomcp.CallToolRequest, input addTaskInput) (*gomcp.CallToolResult, mutationOutput, error) {
	return s.mutate(ctx, service.AddTaskTool, input, func(before, after int) bool { return after > before })
}

func (s *Server) handleDeleteTask(ctx context.Context, _ *gomcp.CallToolRequest, input deleteTaskInput) (*gomcp.CallToolResult, mutationOutput, error) {
	return s.mutate(ctx, service.DeleteTaskTool, input, func(before, after int) bool { return after < before })
}

// mutate runs one registry tool against a fresh snapshot of the owner's
// tasks. The snapshot size tells success from a failure status.
func (s *Server) mutate(ctx context.Context, tool string, input any, succeeded func(before, after int) bool) (*gomcp.CallToolResult, mutationOutput, error) {
	tasks, err := s.store.List(ctx, s.ownerID, models.TaskFilter{})
	if err != nil {
		return errorResult(fmt.Sprintf("loading tasks: %s", err)), mutationOutput{}, nil
	}
	args, err := json.Marshal(input)
	if err != nil {
		return nil, mutationOutput{}, fmt.Errorf("encode %s arguments: %w", tool, err)
	}

	snap := service.NewSnapshot(s.ownerID, tasks)
	before := snap.Len()
	status, err := s.tools.Execute(ctx, snap, client.ToolCall{Name: tool, Arguments: args})
	if err != nil {
		return errorResult(err.Error()), mutationOutput{}, nil
	}

	logging.Info(s.logger, "mcp_tool", map[string]any{
		"owner_id": s.ownerID,
		"tool":     tool,
		"status":   status,
	})
	if !succeeded(before, snap.Len()) {
		return errorResult(status), mutationOutput{}, nil
	}
	return nil, mutationOutput{Message: status, Count: snap.Len()}, nil
}

func (s *Server) handleListTasks(ctx context.Context, _ *gomcp.CallToolRequest, input listTasksInput) (*gomcp.CallToolResult, listTasksOutput, error) {
	filter := models.TaskFilter{}
	if input.Status != "" {
		filter.Status = models.Status(input.Status)
		if !filter.Status.Valid() {
			return errorResult(fmt.Sprintf("invalid status %q: must be one of todo, in-progress, done", input.Status)), listTasksOutput{}, nil
		}
	}

	tasks, err := s.store.List(ctx, s.ownerID, filter)
	if err != nil {
		return errorResult(fmt.Sprintf("listing tasks: %s", err)), listTasksOutput{}, nil
	}

	out := listTasksOutput{
		Tasks: make([]taskOutput, len(tasks)),
		Count: len(tasks),
	}
	for i, t := range tasks {
		out.Tasks[i] = taskToOutput(t)
	}
	return nil, out, nil
}

func taskToOutput(t models.Task) taskOutput {
	return taskOutput{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		DueDate:     t.DueDate,
		Priority:    string(t.Priority),
		Status:      string(t.Status),
		Created:     t.CreatedAt.Format(time.RFC3339),
	}
}

func errorResult(msg string) *gomcp.CallToolResult {
	return &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.TextContent{Text: msg}},
		IsError: true,
	}
}
