package model

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"taskchat-backend/internal/config"
	"taskchat-backend/internal/utils"
	"taskchat-backend/pkg/logger"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino-ext/components/model/qwen"
	"github.com/google/uuid"
	openai "github.com/sashabaranov/go-openai"
)

const (
	defaultOpenAIBaseURL = "https://openrouter.ai/api/v1"
	defaultQwenBaseURL   = "https://dashscope.aliyuncs.com/compatible-mode/v1"
)

// CompletionModel turns a transcript into one chat completion. Every
// provider answers in the OpenAI response shape, which is what the chat
// proxy returns to its callers.
type CompletionModel interface {
	Complete(ctx context.Context, turns []ChatTurn) (*openai.ChatCompletionResponse, error)
}

func NewCompletionModel(ctx context.Context, cfg config.UpstreamConfig) (CompletionModel, error) {
	switch cfg.Provider {
	case "openai", "":
		return createOpenAIModel(cfg), nil
	case "doubao":
		return createDoubaoModel(ctx, cfg)
	case "qwen":
		return createQwenModel(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported model provider: %s", cfg.Provider)
	}
}

func createOpenAIModel(cfg config.UpstreamConfig) CompletionModel {
	logger.Infof("Using OpenAI-compatible model: %s", cfg.Model)

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	clientConfig.BaseURL = defaultOpenAIBaseURL
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	clientConfig.HTTPClient = newUpstreamHTTPClient(cfg)

	return &openaiChatModel{
		client:      openai.NewClientWithConfig(clientConfig),
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		topP:        cfg.TopP,
	}
}

func createDoubaoModel(ctx context.Context, cfg config.UpstreamConfig) (CompletionModel, error) {
	logger.Infof("Using Doubao model: %s, key: %s", cfg.Model, maskKey(cfg.APIKey))

	arkConfig := &ark.ChatModelConfig{
		APIKey: cfg.APIKey,
		Model:  cfg.Model,
		CustomHeader: map[string]string{
			"X-Ark-Thinking-Mode": "disable",
		},
	}
	if cfg.BaseURL != "" {
		arkConfig.BaseURL = cfg.BaseURL
	}
	if cfg.MaxTokens > 0 {
		arkConfig.MaxTokens = &cfg.MaxTokens
	}
	if cfg.Temperature > 0 {
		arkConfig.Temperature = &cfg.Temperature
	}

	chatModel, err := ark.NewChatModel(ctx, arkConfig)
	if err != nil {
		return nil, fmt.Errorf("create doubao model: %w", err)
	}

	return &einoChatModel{chatModel: chatModel, model: cfg.Model}, nil
}

func createQwenModel(ctx context.Context, cfg config.UpstreamConfig) (CompletionModel, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultQwenBaseURL
	}
	logger.Infof("Using Qwen model: %s, BaseURL: %s, key: %s", cfg.Model, baseURL, maskKey(cfg.APIKey))

	qwenConfig := &qwen.ChatModelConfig{
		BaseURL:    baseURL,
		APIKey:     cfg.APIKey,
		Model:      cfg.Model,
		Timeout:    cfg.Timeout,
		HTTPClient: newUpstreamHTTPClient(cfg),
	}
	if cfg.MaxTokens > 0 {
		qwenConfig.MaxTokens = &cfg.MaxTokens
	}
	if cfg.Temperature > 0 {
		qwenConfig.Temperature = &cfg.Temperature
	}
	if cfg.TopP > 0 {
		qwenConfig.TopP = &cfg.TopP
	}

	chatModel, err := qwen.NewChatModel(ctx, qwenConfig)
	if err != nil {
		return nil, fmt.Errorf("create qwen model: %w", err)
	}

	return &einoChatModel{chatModel: chatModel, model: cfg.Model}, nil
}

func newUpstreamHTTPClient(cfg config.UpstreamConfig) *http.Client {
	client := utils.NewHTTPClient(cfg.Timeout)
	client.Transport = NewDebugTransport(client.Transport, cfg.DebugRequest)
	return client
}

func maskKey(key string) string {
	if len(key) > 10 {
		return key[:10] + "..."
	}
	if key == "" {
		return "(empty)"
	}
	return "***"
}

func newCompletionID() string {
	return "chatcmpl-" + uuid.NewString()
}

func nowUnix() int64 {
	return time.Now().Unix()
}

// DebugTransport logs outgoing upstream requests at debug level with
// credentials redacted.
type DebugTransport struct {
	base         http.RoundTripper
	debugEnabled bool
}

func NewDebugTransport(base http.RoundTripper, debugEnabled bool) *DebugTransport {
	if base == nil {
		base = http.DefaultTransport
	}

	return &DebugTransport{
		base:         base,
		debugEnabled: debugEnabled,
	}
}

func (t *DebugTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.debugEnabled && req.Method == http.MethodPost {
		t.logRequest(req)
	}

	resp, err := t.base.RoundTrip(req)
	if err != nil && t.debugEnabled {
		logger.Errorf("[upstream debug] request failed: %v", err)
	}

	return resp, err
}

func (t *DebugTransport) logRequest(req *http.Request) {
	headers := make([]string, 0, len(req.Header))
	for name, values := range req.Header {
		if isSensitiveHeader(name) {
			headers = append(headers, name+": [REDACTED]")
			continue
		}
		headers = append(headers, name+": "+strings.Join(values, ", "))
	}

	var body []byte
	if req.Body != nil {
		var err error
		body, err = io.ReadAll(req.Body)
		if err != nil {
			logger.Errorf("[upstream debug] failed to read request body: %v", err)
			return
		}
		// restore the body for the real round trip
		req.Body = io.NopCloser(bytes.NewReader(body))
	}

	logger.WithFields(map[string]interface{}{
		"method":  req.Method,
		"url":     req.URL.String(),
		"headers": strings.Join(headers, "; "),
		"size":    len(body),
	}).Debugf("[upstream debug] %s", body)
}

func isSensitiveHeader(name string) bool {
	for _, sensitive := range []string{"authorization", "x-api-key", "x-auth-token", "cookie"} {
		if strings.EqualFold(name, sensitive) {
			return true
		}
	}
	return false
}
