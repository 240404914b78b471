package service

import (
	"context"
	"errors"
	"strings"
	"sync"

	"taskchat-backend/internal/model"
	"taskchat-backend/pkg/logger"
)

// Completer produces the assistant turn answering a transcript.
type Completer interface {
	Complete(ctx context.Context, turns []model.ChatTurn) (model.ChatTurn, error)
}

// Conversation holds one chat transcript and the status of its single
// outstanding request. At most one request is in flight; a recorded error
// blocks further sends until Clear.
type Conversation struct {
	mu         sync.Mutex
	messages   []model.ChatTurn
	isLoading  bool
	err        *string
	generation uint64
	completer  Completer
}

func NewConversation(completer Completer) *Conversation {
	return &Conversation{
		messages:  []model.ChatTurn{},
		completer: completer,
	}
}

// Send appends text as a user turn and waits for the answer. Only the
// guard errors are returned; request failures land in the snapshot.
func (c *Conversation) Send(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	c.mu.Lock()
	if c.isLoading {
		c.mu.Unlock()
		return ErrRequestInFlight
	}
	if c.err != nil {
		c.mu.Unlock()
		return ErrConversationFailed
	}

	c.messages = append(c.messages, model.ChatTurn{Role: model.RoleUser, Content: text})
	c.isLoading = true
	c.err = nil
	transcript := cloneTurns(c.messages)
	generation := c.generation
	c.mu.Unlock()

	reply, err := c.completer.Complete(ctx, transcript)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.isLoading = false
	if generation != c.generation {
		// cleared while the request was out; drop the stale settlement
		return nil
	}

	if err != nil {
		msg := failureMessage(err)
		c.err = &msg
		logger.Warnf("Chat request failed: %v", err)
		return nil
	}

	c.messages = append(c.messages, reply)
	return nil
}

// Clear empties the transcript and the error. A request still in flight
// keeps the loading flag until it settles, but its result is discarded.
func (c *Conversation) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.messages = []model.ChatTurn{}
	c.err = nil
	c.generation++
}

func (c *Conversation) Snapshot() model.ChatSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snapshot := model.ChatSnapshot{
		Messages: cloneTurns(c.messages),
		RequestStatus: model.RequestStatus{
			IsLoading: c.isLoading,
		},
	}
	if c.err != nil {
		msg := *c.err
		snapshot.Error = &msg
	}
	return snapshot
}

func failureMessage(err error) string {
	var upstreamErr *model.UpstreamError
	switch {
	case errors.As(err, &upstreamErr):
		if upstreamErr.Message != "" {
			return upstreamErr.Message
		}
		return msgUpstreamFailure
	case errors.Is(err, ErrInvalidResponse):
		return msgInvalidResponse
	default:
		return msgNetworkFailure
	}
}

func cloneTurns(turns []model.ChatTurn) []model.ChatTurn {
	out := make([]model.ChatTurn, len(turns))
	copy(out, turns)
	return out
}
