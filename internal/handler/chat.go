package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"taskchat-backend/internal/model"
	"taskchat-backend/internal/service"
	"taskchat-backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidPayload  = "Invalid payload - messages array required"
	msgChatAPIFailure  = "Chat API failure"
	msgInternalFailure = "Internal server error"
)

type ChatHandler struct {
	proxy *service.ProxyService
}

func NewChatHandler(proxy *service.ProxyService) *ChatHandler {
	return &ChatHandler{
		proxy: proxy,
	}
}

// Chat forwards {messages} to the upstream model and relays its completion.
func (h *ChatHandler) Chat(c *gin.Context) {
	requestID := uuid.NewString()
	start := time.Now()
	log := logger.WithFields(map[string]interface{}{
		"request_id": requestID,
		"path":       c.FullPath(),
	})

	raw, err := c.GetRawData()
	if err != nil {
		log.Errorf("Read chat body: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": msgInternalFailure})
		return
	}

	var body json.RawMessage
	if err := json.Unmarshal(raw, &body); err != nil {
		log.Errorf("Decode chat body: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": msgInternalFailure})
		return
	}

	turns, ok := decodeTurns(messagesField(body))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": msgInvalidPayload})
		return
	}

	resp, err := h.proxy.Forward(c.Request.Context(), turns)
	if err != nil {
		var upstreamErr *model.UpstreamError
		if errors.As(err, &upstreamErr) {
			msg := upstreamErr.Message
			if msg == "" {
				msg = msgChatAPIFailure
			}
			log.WithField("status", upstreamErr.StatusCode).Warnf("Upstream rejected chat: %s", msg)
			c.JSON(upstreamErr.StatusCode, gin.H{"error": msg})
			return
		}

		log.Errorf("Chat completion failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": msgInternalFailure})
		return
	}

	log.WithField("elapsed", time.Since(start).String()).Debugf("Chat completed with %d turns", len(turns))
	c.JSON(http.StatusOK, resp)
}

// messagesField returns the raw messages member of body. Bodies that are
// not JSON objects have no such member.
func messagesField(body json.RawMessage) json.RawMessage {
	body = bytes.TrimSpace(body)
	if len(body) == 0 || body[0] != '{' {
		return nil
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil
	}
	return envelope["messages"]
}

// decodeTurns accepts only a JSON array of turn objects.
func decodeTurns(raw json.RawMessage) ([]model.ChatTurn, bool) {
	if len(raw) == 0 || raw[0] != '[' {
		return nil, false
	}

	var turns []model.ChatTurn
	if err := json.Unmarshal(raw, &turns); err != nil {
		return nil, false
	}
	return turns, true
}
