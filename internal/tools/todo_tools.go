package tools

import (
	"context"
	"encoding/json"
	"strings"

	"taskchat-backend/internal/model"
	"taskchat-backend/internal/service"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const (
	ListTodosTool  = "list_todos"
	AddTodoTool    = "add_todo"
	ToggleTodoTool = "toggle_todo"
	DeleteTodoTool = "delete_todo"
)

// TodoTools exposes a TodoStore as MCP tools. Every successful call answers
// with the whole list and its stats.
type TodoTools struct {
	todos *service.TodoStore
}

func NewTodoTools(todos *service.TodoStore) *TodoTools {
	return &TodoTools{
		todos: todos,
	}
}

func (t *TodoTools) Register(s *server.MCPServer) {
	s.AddTool(mcp.NewTool(ListTodosTool,
		mcp.WithDescription("List every todo item, newest first, with completed and pending counts."),
	), t.List)

	s.AddTool(mcp.NewTool(AddTodoTool,
		mcp.WithDescription("Add a new open todo item at the top of the list."),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("Text of the todo item. Must not be blank."),
		),
	), t.Add)

	s.AddTool(mcp.NewTool(ToggleTodoTool,
		mcp.WithDescription("Flip the completed flag of a todo item."),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Id of the todo item, as returned by list_todos."),
		),
	), t.Toggle)

	s.AddTool(mcp.NewTool(DeleteTodoTool,
		mcp.WithDescription("Delete a todo item."),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Id of the todo item, as returned by list_todos."),
		),
	), t.Delete)
}

func (t *TodoTools) List(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return t.listResult(ListTodosTool)
}

func (t *TodoTools) Add(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := request.RequireString("text")
	if err != nil {
		return newToolError(AddTodoTool, "%v", err), nil
	}
	if strings.TrimSpace(text) == "" {
		return newToolError(AddTodoTool, "text must not be blank"), nil
	}

	t.todos.Add(ctx, text)
	return t.listResult(AddTodoTool)
}

func (t *TodoTools) Toggle(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("id")
	if err != nil {
		return newToolError(ToggleTodoTool, "%v", err), nil
	}
	if !t.todos.Toggle(ctx, id) {
		return newToolError(ToggleTodoTool, "todo %q not found", id), nil
	}

	return t.listResult(ToggleTodoTool)
}

func (t *TodoTools) Delete(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("id")
	if err != nil {
		return newToolError(DeleteTodoTool, "%v", err), nil
	}
	if !t.todos.Delete(ctx, id) {
		return newToolError(DeleteTodoTool, "todo %q not found", id), nil
	}

	return t.listResult(DeleteTodoTool)
}

func (t *TodoTools) listResult(name string) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(model.TodoListResponse{
		Todos: t.todos.Items(),
		Stats: t.todos.Stats(),
	})
	if err != nil {
		return newToolError(name, "encode todos: %v", err), nil
	}

	return mcp.NewToolResultText(string(data)), nil
}
