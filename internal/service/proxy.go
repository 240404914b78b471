package service

import (
	"context"

	"taskchat-backend/internal/model"

	openai "github.com/sashabaranov/go-openai"
)

// ProxyService forwards a transcript to the upstream model behind a fixed
// system instruction.
type ProxyService struct {
	model        model.CompletionModel
	systemPrompt string
}

func NewProxyService(completionModel model.CompletionModel, systemPrompt string) *ProxyService {
	return &ProxyService{
		model:        completionModel,
		systemPrompt: systemPrompt,
	}
}

func (s *ProxyService) Forward(ctx context.Context, turns []model.ChatTurn) (*openai.ChatCompletionResponse, error) {
	messages := make([]model.ChatTurn, 0, len(turns)+1)
	messages = append(messages, model.ChatTurn{Role: model.RoleSystem, Content: s.systemPrompt})
	messages = append(messages, turns...)

	return s.model.Complete(ctx, messages)
}
