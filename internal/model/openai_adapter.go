package model

import (
	"context"
	"errors"
	"fmt"

	einoModel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	openai "github.com/sashabaranov/go-openai"
)

type openaiChatModel struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
	topP        float32
}

func (m *openaiChatModel) Complete(ctx context.Context, turns []ChatTurn) (*openai.ChatCompletionResponse, error) {
	req := openai.ChatCompletionRequest{
		Model:    m.model,
		Messages: toOpenAIMessages(turns),
	}
	if m.maxTokens > 0 {
		req.MaxTokens = m.maxTokens
	}
	if m.temperature > 0 {
		req.Temperature = m.temperature
	}
	if m.topP > 0 {
		req.TopP = m.topP
	}

	resp, err := m.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, toUpstreamError(err)
	}

	return &resp, nil
}

func toOpenAIMessages(turns []ChatTurn) []openai.ChatCompletionMessage {
	result := make([]openai.ChatCompletionMessage, 0, len(turns))
	for _, turn := range turns {
		result = append(result, openai.ChatCompletionMessage{
			Role:    turn.Role,
			Content: turn.Content,
		})
	}
	return result
}

// toUpstreamError keeps the provider's status code so the proxy can mirror
// it. Errors without a status (dial failures, timeouts) pass through.
func toUpstreamError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode != 0 {
		return &UpstreamError{StatusCode: apiErr.HTTPStatusCode, Message: apiErr.Message}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
		return &UpstreamError{StatusCode: reqErr.HTTPStatusCode}
	}

	return fmt.Errorf("chat completion: %w", err)
}

// einoChatModel adapts an eino chat model (doubao, qwen) to CompletionModel.
type einoChatModel struct {
	chatModel einoModel.BaseChatModel
	model     string
}

func (m *einoChatModel) Complete(ctx context.Context, turns []ChatTurn) (*openai.ChatCompletionResponse, error) {
	out, err := m.chatModel.Generate(ctx, toSchemaMessages(turns))
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}
	if out == nil {
		return nil, fmt.Errorf("chat completion: empty response from %s", m.model)
	}

	choice := openai.ChatCompletionChoice{
		Index: 0,
		Message: openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleAssistant,
			Content: out.Content,
		},
		FinishReason: openai.FinishReasonStop,
	}

	resp := &openai.ChatCompletionResponse{
		ID:      newCompletionID(),
		Object:  "chat.completion",
		Created: nowUnix(),
		Model:   m.model,
	}

	if meta := out.ResponseMeta; meta != nil {
		if meta.FinishReason != "" {
			choice.FinishReason = openai.FinishReason(meta.FinishReason)
		}
		if meta.Usage != nil {
			resp.Usage = openai.Usage{
				PromptTokens:     meta.Usage.PromptTokens,
				CompletionTokens: meta.Usage.CompletionTokens,
				TotalTokens:      meta.Usage.TotalTokens,
			}
		}
	}

	resp.Choices = []openai.ChatCompletionChoice{choice}
	return resp, nil
}

func toSchemaMessages(turns []ChatTurn) []*schema.Message {
	result := make([]*schema.Message, 0, len(turns))
	for _, turn := range turns {
		role := schema.User
		switch turn.Role {
		case RoleAssistant:
			role = schema.Assistant
		case RoleSystem:
			role = schema.System
		}
		result = append(result, &schema.Message{
			Role:    role,
			Content: turn.Content,
		})
	}
	return result
}
