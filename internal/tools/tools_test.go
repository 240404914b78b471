package tools

import (
	"context"
	"encoding/json"
	"testing"

	"taskchat-backend/internal/config"
	"taskchat-backend/internal/model"
	"taskchat-backend/internal/service"
	"taskchat-backend/internal/storage"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTools(t *testing.T) (*TodoTools, *service.TodoStore) {
	t.Helper()
	todos := service.NewTodoStore(context.Background(), storage.NewMemoryStorage())
	return NewTodoTools(todos), todos
}

func callRequest(name string, args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, result)
	require.Len(t, result.Content, 1)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return text.Text
}

func decodeList(t *testing.T, result *mcp.CallToolResult) model.TodoListResponse {
	t.Helper()
	require.False(t, result.IsError)
	var list model.TodoListResponse
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &list))
	return list
}

func TestTodoToolsLifecycle(t *testing.T) {
	t.Parallel()

	tools, todos := newTestTools(t)
	ctx := context.Background()

	result, err := tools.List(ctx, callRequest(ListTodosTool, nil))
	require.NoError(t, err)
	assert.Empty(t, decodeList(t, result).Todos)

	result, err = tools.Add(ctx, callRequest(AddTodoTool, map[string]any{"text": "Buy milk"}))
	require.NoError(t, err)
	list := decodeList(t, result)
	require.Len(t, list.Todos, 1)
	id := list.Todos[0].ID

	result, err = tools.Toggle(ctx, callRequest(ToggleTodoTool, map[string]any{"id": id}))
	require.NoError(t, err)
	list = decodeList(t, result)
	assert.True(t, list.Todos[0].Completed)
	assert.Equal(t, model.TodoStats{Total: 1, Completed: 1}, list.Stats)

	result, err = tools.Delete(ctx, callRequest(DeleteTodoTool, map[string]any{"id": id}))
	require.NoError(t, err)
	assert.Empty(t, decodeList(t, result).Todos)
	assert.Empty(t, todos.Items())
}

type toolHandler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)

func handlerFor(tools *TodoTools, name string) toolHandler {
	switch name {
	case AddTodoTool:
		return tools.Add
	case ToggleTodoTool:
		return tools.Toggle
	case DeleteTodoTool:
		return tools.Delete
	default:
		return tools.List
	}
}

func TestTodoToolsErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		tool    string
		args    map[string]any
		wantMsg string
	}{
		{
			name:    "blank text",
			tool:    AddTodoTool,
			args:    map[string]any{"text": "  "},
			wantMsg: "text must not be blank",
		},
		{
			name:    "unknown toggle id",
			tool:    ToggleTodoTool,
			args:    map[string]any{"id": "missing"},
			wantMsg: `todo "missing" not found`,
		},
		{
			name:    "unknown delete id",
			tool:    DeleteTodoTool,
			args:    map[string]any{"id": "missing"},
			wantMsg: `todo "missing" not found`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			tools, todos := newTestTools(t)
			result, err := handlerFor(tools, tt.tool)(context.Background(), callRequest(tt.tool, tt.args))
			require.NoError(t, err)
			require.True(t, result.IsError)

			toolErr, ok := ParseToolError(resultText(t, result))
			require.True(t, ok)
			assert.Equal(t, tt.tool, toolErr.ToolName)
			assert.Equal(t, tt.wantMsg, toolErr.ErrorMessage)
			assert.Empty(t, todos.Items())
		})
	}
}

func TestTodoToolsMissingArgument(t *testing.T) {
	t.Parallel()

	tools, _ := newTestTools(t)
	result, err := tools.Add(context.Background(), callRequest(AddTodoTool, map[string]any{}))
	require.NoError(t, err)
	require.True(t, result.IsError)

	toolErr, ok := ParseToolError(resultText(t, result))
	require.True(t, ok)
	assert.NotEmpty(t, toolErr.ErrorMessage)
}

func TestParseToolErrorRejectsOtherText(t *testing.T) {
	t.Parallel()

	_, ok := ParseToolError(`{"todos":[],"stats":{"total":0}}`)
	assert.False(t, ok)

	_, ok = ParseToolError("not json")
	assert.False(t, ok)
}

func TestServerListsTools(t *testing.T) {
	t.Parallel()

	todos := service.NewTodoStore(context.Background(), storage.NewMemoryStorage())
	s := NewServer(config.MCPConfig{Name: "test", Version: "0.0.1", WithRecovery: true}, todos)

	resp := s.HandleMessage(context.Background(), []byte(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`))
	data, err := json.Marshal(resp)
	require.NoError(t, err)

	for _, name := range []string{ListTodosTool, AddTodoTool, ToggleTodoTool, DeleteTodoTool} {
		assert.Contains(t, string(data), `"name":"`+name+`"`)
	}
}

func TestServeRejectsUnknownTransport(t *testing.T) {
	t.Parallel()

	todos := service.NewTodoStore(context.Background(), storage.NewMemoryStorage())
	cfg := config.MCPConfig{Name: "test", Version: "0.0.1", Transport: "carrier-pigeon"}

	err := Serve(context.Background(), cfg, NewServer(cfg, todos))
	assert.EqualError(t, err, "unsupported mcp transport: carrier-pigeon")
}
