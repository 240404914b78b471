package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"taskchat-backend/internal/config"
	"taskchat-backend/internal/model"
	"taskchat-backend/internal/utils"

	openai "github.com/sashabaranov/go-openai"
)

const chatPath = "/api/chat"

// ChatClient posts transcripts to the chat proxy and extracts the
// assistant turn from its OpenAI-shaped answer.
type ChatClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewChatClient(cfg config.ClientConfig) *ChatClient {
	return &ChatClient{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: utils.NewHTTPClient(cfg.Timeout),
	}
}

func (c *ChatClient) Complete(ctx context.Context, turns []model.ChatTurn) (model.ChatTurn, error) {
	req, err := utils.NewJSONRequest(ctx, http.MethodPost, c.baseURL+chatPath, model.ChatRequest{Messages: turns})
	if err != nil {
		return model.ChatTurn{}, fmt.Errorf("%w: %v", ErrTransport, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return model.ChatTurn{}, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return model.ChatTurn{}, fmt.Errorf("%w: read body: %v", ErrTransport, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var envelope model.ErrorResponse
		// a body that is not the envelope leaves Message empty
		_ = json.Unmarshal(body, &envelope)
		return model.ChatTurn{}, &model.UpstreamError{StatusCode: resp.StatusCode, Message: envelope.Error}
	}

	var completion openai.ChatCompletionResponse
	if err := json.Unmarshal(body, &completion); err != nil {
		return model.ChatTurn{}, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if len(completion.Choices) == 0 {
		return model.ChatTurn{}, fmt.Errorf("%w: no choices", ErrInvalidResponse)
	}

	message := completion.Choices[0].Message
	if message.Role == "" && message.Content == "" {
		return model.ChatTurn{}, fmt.Errorf("%w: empty message", ErrInvalidResponse)
	}

	role := message.Role
	if role == "" {
		role = model.RoleAssistant
	}
	return model.ChatTurn{Role: role, Content: message.Content}, nil
}
