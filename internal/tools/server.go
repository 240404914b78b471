package tools

import (
	"context"
	"fmt"
	"time"

	"taskchat-backend/internal/config"
	"taskchat-backend/internal/service"
	"taskchat-backend/pkg/logger"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const sseShutdownTimeout = 5 * time.Second

// NewServer builds an MCP server carrying the todo tools.
func NewServer(cfg config.MCPConfig, todos *service.TodoStore) *server.MCPServer {
	hooks := &server.Hooks{}
	hooks.AddBeforeCallTool(func(ctx context.Context, id any, message *mcp.CallToolRequest) {
		logger.WithFields(map[string]interface{}{
			"tool": message.Params.Name,
			"id":   id,
		}).Debug("Tool call")
	})
	hooks.AddOnError(func(ctx context.Context, id any, method mcp.MCPMethod, message any, err error) {
		logger.WithFields(map[string]interface{}{
			"method": method,
			"id":     id,
		}).Warnf("MCP request failed: %v", err)
	})

	opts := []server.ServerOption{
		server.WithToolCapabilities(false),
		server.WithHooks(hooks),
	}
	if cfg.WithLogging {
		opts = append(opts, server.WithLogging())
	}
	if cfg.WithRecovery {
		opts = append(opts, server.WithRecovery())
	}

	s := server.NewMCPServer(cfg.Name, cfg.Version, opts...)
	NewTodoTools(todos).Register(s)

	return s
}

// Serve runs s on the configured transport until it stops. The sse
// transport also stops when ctx is done.
func Serve(ctx context.Context, cfg config.MCPConfig, s *server.MCPServer) error {
	switch cfg.Transport {
	case "stdio", "":
		return server.ServeStdio(s)
	case "sse":
		sseServer := server.NewSSEServer(s)

		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), sseShutdownTimeout)
			defer cancel()
			if err := sseServer.Shutdown(shutdownCtx); err != nil {
				logger.Errorf("Failed to stop MCP sse server: %v", err)
			}
		}()

		logger.Infof("MCP sse server listening on %s", cfg.Address)
		return sseServer.Start(cfg.Address)
	default:
		return fmt.Errorf("unsupported mcp transport: %s", cfg.Transport)
	}
}
