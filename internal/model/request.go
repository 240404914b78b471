package model

// ChatRequest is the body the conversation client posts to the chat proxy.
type ChatRequest struct {
	Messages []ChatTurn `json:"messages"`
}

type AddTodoRequest struct {
	Text string `json:"text"`
}
