package model

import "fmt"

// UpstreamError is a non-success answer from a completion provider or from
// the chat proxy. StatusCode is the HTTP status to mirror back.
type UpstreamError struct {
	StatusCode int
	Message    string
}

func (e *UpstreamError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("upstream returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("upstream returned status %d: %s", e.StatusCode, e.Message)
}
