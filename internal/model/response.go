package model

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// TodoItem is one entry of the todo list. ID never changes after creation.
type TodoItem struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
}

type TodoStats struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Pending   int `json:"pending"`
}

type TodoListResponse struct {
	Todos []TodoItem `json:"todos"`
	Stats TodoStats  `json:"stats"`
}

type ChatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// RequestStatus tracks the single outstanding chat request. Error is nil
// when no failure is recorded.
type RequestStatus struct {
	IsLoading bool    `json:"is_loading"`
	Error     *string `json:"error"`
}

type ChatSnapshot struct {
	Messages []ChatTurn `json:"messages"`
	RequestStatus
}

type ErrorResponse struct {
	Error string `json:"error"`
}
