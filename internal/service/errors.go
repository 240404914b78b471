package service

import "errors"

var (
	// ErrRequestInFlight rejects a send while another one is outstanding.
	ErrRequestInFlight = errors.New("a chat request is already in flight")
	// ErrConversationFailed rejects a send until the recorded error is cleared.
	ErrConversationFailed = errors.New("conversation has an unresolved error, clear it first")

	ErrInvalidResponse = errors.New("invalid response format")
	ErrTransport       = errors.New("chat transport failed")
)

const (
	msgUpstreamFailure = "Error from chat API"
	msgInvalidResponse = "Invalid response format from AI service"
	msgNetworkFailure  = "Network error - please check your connection"
)
