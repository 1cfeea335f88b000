package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/TWRT/taskflow/internal/logging"
	"github.com/TWRT/taskflow/internal/models"
	"github.com/TWRT/taskflow/internal/repository"
	"github.com/TWRT/taskflow/internal/service"
	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, owner string) (*Server, *repository.TaskRepository, *bytes.Buffer) {
	t.Helper()
	db, err := repository.InitDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	logs := &bytes.Buffer{}
	logger := logging.New(logs)
	repo := repository.NewTaskRepository(db)
	srv := NewServer(repo, service.NewToolRegistry(repo, logger), owner, "test", logger)
	return srv, repo, logs
}

// callTool connects an in-memory client to srv and calls one tool.
func callTool(t *testing.T, srv *Server, toolName string, args map[string]any) *gomcp.CallToolResult {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	c := gomcp.NewClient(&gomcp.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)

	t1, t2 := gomcp.NewInMemoryTransports()
	go func() {
		_ = srv.MCPServer().Run(ctx, t1)
	}()

	session, err := c.Connect(ctx, t2, nil)
	require.NoError(t, err)
	defer session.Close()

	result, err := session.CallTool(ctx, &gomcp.CallToolParams{
		Name:      toolName,
		Arguments: args,
	})
	require.NoError(t, err)
	return result
}

func extractText(result *gomcp.CallToolResult) string {
	for _, c := range result.Content {
		if tc, ok := c.(*gomcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func decodeOutput(t *testing.T, result *gomcp.CallToolResult, out any) {
	t.Helper()
	require.False(t, result.IsError, extractText(result))
	data, err := json.Marshal(result.StructuredContent)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, out))
}

func TestAddTask(t *testing.T) {
	srv, repo, logs := newTestServer(t, "alice")

	var out mutationOutput
	decodeOutput(t, callTool(t, srv, "add_task", map[string]any{"title": "Buy milk"}), &out)
	assert.Equal(t, `Task "Buy milk" added successfully.`, out.Message)
	assert.Equal(t, 1, out.Count)

	tasks, err := repo.List(context.Background(), "alice", models.TaskFilter{})
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, models.PriorityMedium, tasks[0].Priority)
	assert.Equal(t, models.StatusTodo, tasks[0].Status)
	assert.Contains(t, logs.String(), `"msg":"mcp_tool"`)
}

func TestAddTask_InvalidArguments(t *testing.T) {
	srv, repo, _ := newTestServer(t, "alice")

	for _, args := range []map[string]any{
		{"title": ""},
		{"title": "x", "priority": "urgent"},
	} {
		result := callTool(t, srv, "add_task", args)
		assert.True(t, result.IsError, args)
		assert.Contains(t, extractText(result), "invalid tool arguments")
	}

	tasks, err := repo.List(context.Background(), "alice", models.TaskFilter{})
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestDeleteTask(t *testing.T) {
	srv, repo, _ := newTestServer(t, "alice")
	ctx := context.Background()
	_, err := repo.Create(ctx, "alice", models.NewTask{Title: "Buy milk"})
	require.NoError(t, err)
	_, err = repo.Create(ctx, "alice", models.NewTask{Title: "Walk dog"})
	require.NoError(t, err)

	var out mutationOutput
	decodeOutput(t, callTool(t, srv, "delete_task", map[string]any{"title": "BUY MILK"}), &out)
	assert.Equal(t, `Task "BUY MILK" deleted successfully.`, out.Message)
	assert.Equal(t, 1, out.Count)

	result := callTool(t, srv, "delete_task", map[string]any{"title": "Buy milk"})
	assert.True(t, result.IsError)
	assert.Equal(t, `Task "Buy milk" not found.`, extractText(result))

	tasks, err := repo.List(ctx, "alice", models.TaskFilter{})
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "Walk dog", tasks[0].Title)
}

func TestDeleteTask_OtherOwnerUntouched(t *testing.T) {
	srv, repo, _ := newTestServer(t, "alice")
	_, err := repo.Create(context.Background(), "bob", models.NewTask{Title: "Buy milk"})
	require.NoError(t, err)

	result := callTool(t, srv, "delete_task", map[string]any{"title": "Buy milk"})
	assert.True(t, result.IsError)

	tasks, err := repo.List(context.Background(), "bob", models.TaskFilter{})
	require.NoError(t, err)
	assert.Len(t, tasks, 1)
}

func TestListTasks(t *testing.T) {
	srv, repo, _ := newTestServer(t, "alice")
	ctx := context.Background()
	first, err := repo.Create(ctx, "alice", models.NewTask{Title: "Buy milk", DueDate: "2026-05-01"})
	require.NoError(t, err)
	second, err := repo.Create(ctx, "alice", models.NewTask{Title: "Walk dog", Priority: models.PriorityHigh})
	require.NoError(t, err)
	done := models.StatusDone
	_, err = repo.Update(ctx, "alice", second.ID, models.TaskPatch{Status: &done})
	require.NoError(t, err)

	var out listTasksOutput
	decodeOutput(t, callTool(t, srv, "list_tasks", map[string]any{}), &out)
	require.Equal(t, 2, out.Count)
	assert.Equal(t, first.ID, out.Tasks[0].ID)
	assert.Equal(t, "2026-05-01", out.Tasks[0].DueDate)
	assert.Equal(t, "high", out.Tasks[1].Priority)

	out = listTasksOutput{}
	decodeOutput(t, callTool(t, srv, "list_tasks", map[string]any{"status": "done"}), &out)
	require.Equal(t, 1, out.Count)
	assert.Equal(t, "Walk dog", out.Tasks[0].Title)

	result := callTool(t, srv, "list_tasks", map[string]any{"status": "archived"})
	assert.True(t, result.IsError)
}
