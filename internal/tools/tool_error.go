package tools

import (
	"encoding/json"
	"fmt"

	"taskchat-backend/pkg/logger"

	"github.com/mark3labs/mcp-go/mcp"
)

type ToolErrorResult struct {
	Success      bool   `json:"success"`
	Error        bool   `json:"error"`
	ErrorMessage string `json:"error_message"`
	ToolName     string `json:"tool_name"`
}

// newToolError builds a tool-level error result, not a protocol error.
func newToolError(name, format string, args ...interface{}) *mcp.CallToolResult {
	msg := fmt.Sprintf(format, args...)
	logger.WithFields(map[string]interface{}{"tool": name}).Warnf("Tool call failed: %s", msg)

	data, err := json.Marshal(ToolErrorResult{
		Success:      false,
		Error:        true,
		ErrorMessage: msg,
		ToolName:     name,
	})
	if err != nil {
		return mcp.NewToolResultError(msg)
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.NewTextContent(string(data))},
		IsError: true,
	}
}

func ParseToolError(text string) (*ToolErrorResult, bool) {
	var result ToolErrorResult
	if err := json.Unmarshal([]byte(text), &result); err != nil {
		return nil, false
	}
	if !result.Error || result.Success {
		return nil, false
	}
	return &result, true
}
